package filestorage

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uploadHeader(t *testing.T, filename, contentType string, body []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(body)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["image"][0]
}

func TestLocalStorageSaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	ls, err := NewLocalStorage(dir, "http://cdn.test/uploads/")
	require.NoError(t, err)
	ctx := context.Background()

	url, err := ls.SaveFile(ctx, uploadHeader(t, "cat.png", "image/png", []byte("png")), "posts")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://cdn.test/uploads/posts/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	path := ls.GetFullPath(url)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))

	require.NoError(t, ls.DeleteFile(ctx, url))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// deleting twice is fine
	assert.NoError(t, ls.DeleteFile(ctx, url))
}

func TestLocalStorageRejectsNonImages(t *testing.T) {
	ls, err := NewLocalStorage(t.TempDir(), "")
	require.NoError(t, err)

	_, err = ls.SaveFile(context.Background(), uploadHeader(t, "notes.txt", "text/plain", []byte("hi")), "")
	assert.Error(t, err)
}

func TestGetFullPathStaysInsideBase(t *testing.T) {
	ls, err := NewLocalStorage(t.TempDir(), "")
	require.NoError(t, err)

	assert.Empty(t, ls.GetFullPath("http://elsewhere/x.png"))
	p := ls.GetFullPath("/uploads/../../etc/passwd")
	assert.True(t, strings.HasPrefix(p, ls.basePath))
}
