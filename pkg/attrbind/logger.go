package attrbind

import (
	"github.com/sirupsen/logrus"
)

var logger = logrus.NewEntry(logrus.StandardLogger()).WithField("prefix", "attrbind")

// SetLogger replaces the entry used for binding diagnostics.
func SetLogger(l *logrus.Entry) {
	if l == nil {
		return
	}
	logger = l
}
