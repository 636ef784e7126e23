package signals

import "strings"

// HangupFile is the name the buffer is saved under when the terminal
// hangs up.
const HangupFile = "ed.hup"

// persist writes the content to HangupFile, falling back to $HOME. It never
// enters the gate; a second signal during the save is not deferred.
func (co *Coordinator) persist() {
	if co.content == nil || !co.content.HasContent() {
		return
	}
	err := co.content.WriteContent(HangupFile)
	if err == nil {
		co.log.WithField("path", HangupFile).Debug("buffer saved on hangup")
		return
	}
	co.log.WithError(err).WithField("path", HangupFile).Debug("hangup save failed")
	path, ok := co.homeHangupFile()
	if !ok {
		return
	}
	if err := co.content.WriteContent(path); err != nil {
		co.log.WithError(err).WithField("path", path).Debug("hangup save failed")
		return
	}
	co.log.WithField("path", path).Debug("buffer saved on hangup")
}

// homeHangupFile joins $HOME and HangupFile, refusing paths that would not
// fit in PathMax bytes including the terminating NUL.
func (co *Coordinator) homeHangupFile() (string, bool) {
	home, ok := co.getenv("HOME")
	if !ok {
		return "", false
	}
	sep := "/"
	if home == "" || strings.HasSuffix(home, "/") {
		sep = ""
	}
	path := home + sep + HangupFile
	if len(path)+1 >= PathMax {
		return "", false
	}
	return path, true
}
