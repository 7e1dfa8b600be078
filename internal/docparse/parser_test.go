package docparse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	appErr "github.com/senseops/diagd/internal/pkg/errors"
)

func TestExtractPages_PlainTextIsOnePage(t *testing.T) {
	pages, err := ExtractPages(context.Background(), []byte("line one\nline two"), "notes.txt")
	require.NoError(t, err)
	require.Len(t, pages, 1)
	require.Equal(t, 1, pages[0].Number)
	require.Equal(t, "line one\nline two", pages[0].Text)
}

func TestExtractPages_MarkdownIsFlattened(t *testing.T) {
	md := "# Pump Manual\n\nGrease the *bearing* monthly.\n\n- check oil\n- check belt\n"
	pages, err := ExtractPages(context.Background(), []byte(md), "manual.md")
	require.NoError(t, err)
	require.Len(t, pages, 1)
	require.Contains(t, pages[0].Text, "Pump Manual")
	require.Contains(t, pages[0].Text, "Grease the bearing monthly.")
	require.Contains(t, pages[0].Text, "check oil")
	require.NotContains(t, pages[0].Text, "#")
	require.NotContains(t, pages[0].Text, "*")
}

func TestExtractPages_GarbagePDFIsIngestionError(t *testing.T) {
	_, err := ExtractPages(context.Background(), []byte("this is not a pdf"), "broken.pdf")
	require.ErrorIs(t, err, appErr.ErrIngestion)
}
