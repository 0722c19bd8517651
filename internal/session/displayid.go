package session

import (
	"fmt"
	"time"
)

// DeriveDisplayID produces the human-readable session label used for
// filenames and UI: "{roomName}_{date}_{hour-minute}". Two instances of the
// same room started within the same minute collide, so callers must rely on
// the session key for uniqueness and treat this value as a label only.
func DeriveDisplayID(roomName string, now time.Time) string {
	return fmt.Sprintf("%s_%s_%s", roomName, now.Format("2006-01-02"), now.Format("15-04"))
}
