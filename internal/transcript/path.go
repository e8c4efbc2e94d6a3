package transcript

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

// DefaultPath returns the database location under the XDG data directory,
// $XDG_DATA_HOME/claude-vim/chats.db. The directory is created by Open.
func DefaultPath() string {
	return filepath.Join(xdg.DataHome, "claude-vim", "chats.db")
}
