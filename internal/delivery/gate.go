package delivery

import (
	"io/fs"
	"os"

	"github.com/docker/go-units"

	"github.com/flemzord/sealdrop/internal/prefs"
)

// MaxBotAPIFileSize is the upload limit of the public Bot API (50 MiB).
const MaxBotAPIFileSize int64 = 50 * units.MiB

// UploadTarget is a file to deliver. Title and NotificationID are only
// used for logs and history.
type UploadTarget struct {
	Path           string
	Title          string
	NotificationID int
}

// Gate checks that a delivery may be attempted. The zero value uses
// MaxBotAPIFileSize, the default catalog and os.Stat.
type Gate struct {
	MaxFileSize int64
	Messages    Messages
	Stat        func(name string) (fs.FileInfo, error)
}

// Validate checks, in order, that the configuration is complete, that the
// target is an existing regular file and that it fits the size limit.
// The first failure is returned.
func (g Gate) Validate(cfg prefs.DeliveryConfiguration, target UploadTarget) error {
	if !cfg.Configured() {
		return &Error{Kind: KindNotConfigured, Message: g.messages().Text(MsgNotConfigured)}
	}

	info, err := g.stat(target.Path)
	if err != nil || info.IsDir() {
		return &Error{Kind: KindFileMissing, Message: g.messages().Text(MsgFileMissing, target.Path), Err: err}
	}

	return g.checkSize(info.Size())
}

// checkSize fails with KindFileTooLarge when size exceeds the limit.
// A file of exactly the limit is accepted.
func (g Gate) checkSize(size int64) error {
	limit := g.limit()
	if size <= limit {
		return nil
	}
	return &Error{
		Kind:    KindFileTooLarge,
		Message: g.messages().Text(MsgFileTooLarge, units.BytesSize(float64(size)), units.BytesSize(float64(limit))),
	}
}

func (g Gate) limit() int64 {
	if g.MaxFileSize > 0 {
		return g.MaxFileSize
	}
	return MaxBotAPIFileSize
}

func (g Gate) messages() Messages {
	if g.Messages != nil {
		return g.Messages
	}
	return defaultCatalog
}

func (g Gate) stat(name string) (fs.FileInfo, error) {
	if g.Stat != nil {
		return g.Stat(name)
	}
	return os.Stat(name)
}
