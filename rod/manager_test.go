//go:build integration

package rod_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propix/propix/rod"
)

func TestBrowserManager_RecyclesAfterPageBudget(t *testing.T) {
	t.Parallel()

	manager, err := rod.NewBrowserManager(rod.WithMaxPages(3))
	require.NoError(t, err)
	defer manager.Close()

	firstBrowser := manager.Browser()
	require.NotNil(t, firstBrowser)

	manager.PageDone()
	manager.PageDone()
	manager.PageDone()

	secondBrowser := manager.Browser()
	require.NotNil(t, secondBrowser)
	assert.NotSame(t, firstBrowser, secondBrowser)
}

func TestBrowserManager_KeepsBrowserUnderBudget(t *testing.T) {
	t.Parallel()

	manager, err := rod.NewBrowserManager(rod.WithMaxPages(5))
	require.NoError(t, err)
	defer manager.Close()

	firstBrowser := manager.Browser()
	require.NotNil(t, firstBrowser)

	manager.PageDone()
	manager.PageDone()

	assert.Same(t, firstBrowser, manager.Browser())
}
