package worker

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var workerDebugEnabled = strings.EqualFold(os.Getenv("SOCIALCLIENT_WORKER_DEBUG"), "1")

func debugLog(log logrus.FieldLogger, format string, args ...interface{}) {
	if workerDebugEnabled {
		log.Debugf(format, args...)
	}
}
