package debugger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carp-lang/carp/service"
)

func TestNewTUIBuildsPanels(t *testing.T) {
	sess, err := service.TranslateSource(`(output 7)`)
	require.NoError(t, err)
	sess.Load(nil, 0)

	tui := NewTUI(sess)
	require.NotNil(t, tui)

	assert.NotNil(t, tui.RegisterView)
	assert.NotNil(t, tui.MemoryView)
	assert.NotNil(t, tui.StackView)
	assert.NotNil(t, tui.OutputView)
}

func TestTUIStepMovesCursorToLatestCycle(t *testing.T) {
	sess, err := service.TranslateSource(`(output 7)`)
	require.NoError(t, err)
	sess.Load(nil, 0)

	tui := NewTUI(sess)
	tui.step()
	assert.Equal(t, len(sess.Log())-1, tui.cursor)
}

func TestTUIMoveCursorClampsToLogBounds(t *testing.T) {
	sess, err := service.TranslateSource(`(output 7)`)
	require.NoError(t, err)
	sess.Load(nil, 0)
	require.NoError(t, sess.Run())

	tui := NewTUI(sess)
	tui.cursor = len(sess.Log()) - 1
	tui.moveCursor(100)
	assert.Equal(t, len(sess.Log())-1, tui.cursor)

	tui.moveCursor(-1000)
	assert.Equal(t, 0, tui.cursor)
}
