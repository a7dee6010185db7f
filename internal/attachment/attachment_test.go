package attachment

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/carson-networks/project-ledger/internal/domainerr"
)

func TestLocalUploader_WritesFileAndReturnsURL(t *testing.T) {
	dir := t.TempDir()
	logger, _ := test.NewNullLogger()
	u, err := NewLocalUploader(dir, "http://files.local/att/", time.Second, logger)
	require.NoError(t, err)

	link, err := u.Upload(context.Background(), File{Name: "../../receipt 01.pdf", Data: []byte("pdf")})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(link, "http://files.local/att/"))
	assert.True(t, strings.HasSuffix(link, "-receipt_01.pdf"))

	name := strings.TrimPrefix(link, "http://files.local/att/")
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, "pdf", string(data))
}

func TestLocalUploader_Rejects(t *testing.T) {
	logger, _ := test.NewNullLogger()
	u, err := NewLocalUploader(t.TempDir(), "http://x", time.Second, logger)
	require.NoError(t, err)

	_, err = u.Upload(context.Background(), File{Name: "a"})
	assert.ErrorIs(t, err, domainerr.ErrValidation)

	_, err = u.Upload(context.Background(), File{Name: "a", Data: make([]byte, MaxFileSize+1)})
	assert.ErrorIs(t, err, domainerr.ErrValidation)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = u.Upload(ctx, File{Name: "a", Data: []byte("x")})
	if err != nil {
		assert.ErrorIs(t, err, domainerr.ErrUpstream)
	}
}

type mockUploader struct {
	mock.Mock
}

func (m *mockUploader) Upload(ctx context.Context, file File) (string, error) {
	args := m.Called(ctx, file)
	return args.String(0), args.Error(1)
}

func (m *mockUploader) Delete(ctx context.Context, link string) error {
	return m.Called(ctx, link).Error(0)
}

func TestUploadAll_StopsOnFirstFailure(t *testing.T) {
	u := new(mockUploader)
	a := File{Name: "a", Data: []byte("a")}
	b := File{Name: "b", Data: []byte("b")}
	c := File{Name: "c", Data: []byte("c")}
	u.On("Upload", mock.Anything, a).Return("http://x/a", nil)
	u.On("Upload", mock.Anything, b).Return("", errors.New("disk full"))
	u.On("Delete", mock.Anything, "http://x/a").Return(nil).Once()

	_, err := UploadAll(context.Background(), u, []File{a, b, c})
	require.Error(t, err)
	u.AssertNotCalled(t, "Upload", mock.Anything, c)
	u.AssertExpectations(t)

	u2 := new(mockUploader)
	u2.On("Upload", mock.Anything, a).Return("http://x/a", nil)
	urls, err := UploadAll(context.Background(), u2, []File{a})
	require.NoError(t, err)
	assert.Equal(t, []string{"http://x/a"}, urls)
}

func TestLocalUploader_Delete(t *testing.T) {
	dir := t.TempDir()
	logger, _ := test.NewNullLogger()
	u, err := NewLocalUploader(dir, "http://files.local/att", time.Second, logger)
	require.NoError(t, err)

	link, err := u.Upload(context.Background(), File{Name: "receipt.pdf", Data: []byte("pdf")})
	require.NoError(t, err)
	name := strings.TrimPrefix(link, "http://files.local/att/")

	require.NoError(t, u.Delete(context.Background(), link))
	_, err = os.Stat(filepath.Join(dir, name))
	assert.ErrorIs(t, err, os.ErrNotExist)

	assert.NoError(t, u.Delete(context.Background(), link), "already gone")
	assert.ErrorIs(t, u.Delete(context.Background(), "http://elsewhere/x"), domainerr.ErrValidation)
	assert.ErrorIs(t, u.Delete(context.Background(), "http://files.local/att/..%2Fsecret"), domainerr.ErrValidation)
}
