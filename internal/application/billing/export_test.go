package billing

import "time"

// SetClock reemplaza el reloj del pipeline en tests.
func (p *SealPipeline) SetClock(now func() time.Time) { p.now = now }
