package liteclient

import (
	"context"

	"github.com/opd-ai/liteclient/adnl"
	"github.com/opd-ai/liteclient/directory"
	"github.com/sirupsen/logrus"
)

// Dial fetches the global config at url, builds a ConnectionManager over
// its liteservers and connects. Fetch and parse failures are returned
// without any connection attempt.
func Dial(ctx context.Context, url string, options *Options) (*ConnectionManager, *adnl.Session, error) {
	if options == nil {
		options = NewOptions()
	}

	dir, err := directory.Fetch(ctx, options.HTTPClient, url)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Dial",
			"url":      url,
			"error":    err.Error(),
		}).Error("Failed to load liteserver directory")
		return nil, nil, err
	}

	manager, err := New(dir, options)
	if err != nil {
		return nil, nil, err
	}

	session, err := manager.Connect(ctx)
	if err != nil {
		return manager, nil, err
	}
	return manager, session, nil
}

// DialTestnet is Dial against the published testnet config.
func DialTestnet(ctx context.Context, options *Options) (*ConnectionManager, *adnl.Session, error) {
	return Dial(ctx, directory.TestnetConfigURL, options)
}
