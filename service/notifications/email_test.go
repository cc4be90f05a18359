package notifications_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nowijnah/aimajou-server/service/notifications"
	"github.com/stretchr/testify/require"
)

func TestTemplateStoreFallsBackWhenAssetMissing(t *testing.T) {
	store := notifications.NewTemplateStore(t.TempDir())

	html, err := store.Render(notifications.TemplateReply, notifications.TemplateData{
		RecipientName:  "alice",
		AuthorName:     "bob",
		CommentContent: "hi",
		PostURL:        "https://example.test/labs/1",
		IsReply:        true,
	})
	require.NoError(t, err)
	require.Contains(t, html, "New reply to your comment")
	require.Contains(t, html, "alice")
	require.Contains(t, html, "https://example.test/labs/1")
}

func TestTemplateStoreUsesNamedAsset(t *testing.T) {
	dir := t.TempDir()
	asset := filepath.Join(dir, notifications.TemplateComment+".html")
	require.NoError(t, os.WriteFile(asset, []byte("<p>custom {{.AuthorName}}</p>"), 0o644))

	store := notifications.NewTemplateStore(dir)
	html, err := store.Render(notifications.TemplateComment, notifications.TemplateData{
		AuthorName: "bob",
	})
	require.NoError(t, err)
	require.Equal(t, "<p>custom bob</p>", html)
}

func TestTemplateStoreEscapesContent(t *testing.T) {
	store := notifications.NewTemplateStore(t.TempDir())

	html, err := store.Render(notifications.TemplateComment, notifications.TemplateData{
		CommentContent: "<script>alert(1)</script>",
	})
	require.NoError(t, err)
	require.NotContains(t, html, "<script>")
}
