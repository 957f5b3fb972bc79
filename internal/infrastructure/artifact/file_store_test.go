package artifact_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/cfdi-sellador/internal/infrastructure/artifact"
)

func TestFileStore_SaveAgregaDeclaracion(t *testing.T) {
	dir := t.TempDir()
	store := artifact.NewFileStore(dir, "")

	path, err := store.Save([]byte(`<cfdi:Comprobante/>`))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cfdi.xml"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<cfdi:Comprobante/>", string(data))
}

func TestFileStore_SaveReemplaza(t *testing.T) {
	store := artifact.NewFileStore(t.TempDir(), "factura.xml")

	_, err := store.Save([]byte(`<a/>`))
	require.NoError(t, err)
	_, err = store.Save([]byte(`<?xml version="1.0"?><b/>`))
	require.NoError(t, err)

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Equal(t, `<?xml version="1.0"?><b/>`, string(data), "no duplica la declaración")

	entries, err := os.ReadDir(filepath.Dir(store.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no quedan temporales")
}

func TestFileStore_CreaDirectorio(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "salida", "cfdi")
	_, err := artifact.NewFileStore(dir, "").Save([]byte(`<a/>`))
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "cfdi.xml"))
}

func TestFileStore_Errores(t *testing.T) {
	store := artifact.NewFileStore(t.TempDir(), "")

	_, err := store.Save(nil)
	assert.Error(t, err)
	assert.NoFileExists(t, store.Path())
}
