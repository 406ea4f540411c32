package main

import (
	"context"
	"fmt"
	"time"

	"github.com/0chain/imagestore/code/go/0chain.net/core/common"
	"github.com/0chain/imagestore/code/go/0chain.net/core/logging"
	"github.com/0chain/imagestore/code/go/0chain.net/imagecore/config"
	"github.com/0chain/imagestore/code/go/0chain.net/imagecore/handler"
	"github.com/0chain/imagestore/code/go/0chain.net/imagecore/ledger"
	"github.com/0chain/imagestore/code/go/0chain.net/imagecore/media"
	"github.com/0chain/imagestore/code/go/0chain.net/imagecore/quota"
	"github.com/0chain/imagestore/code/go/0chain.net/imagecore/session"
)

func main() {
	parseFlags()

	setupConfig()

	setupLogging()

	common.SetupRootContext(context.Background())

	fmt.Print("[4/5] open ledger store")
	store, err := ledger.OpenStore(&config.Configuration)
	if err != nil {
		logging.Logger.Error("Failed to open the ledger store. Shutting the server down")
		panic(err)
	}
	fmt.Print("	[OK]\n")

	q := quota.NewLedger(
		config.Configuration.FreeTierMaxBytes,
		config.Configuration.FreeTierMaxUploadsPerDay)

	// Sessions live as long as the media they describe, so a status probe
	// never outlasts the data it reports on.
	sessionTTL := time.Duration(config.Configuration.DefaultBTLDays) * 24 * time.Hour
	tracker := session.NewTracker(sessionTTL, time.Hour)

	handler.Setup(media.NewOrchestrator(store, q, tracker,
		media.LimitsFromConfig(&config.Configuration)))

	ledger.SetupWorkers(common.GetRootContext(), store,
		config.Configuration.SweepFrequency)

	startHttpServer(store)
}

func handleStoreShutdown(ctx context.Context, store ledger.Store) {
	go func() {
		<-ctx.Done()
		logging.Logger.Info("Shutting down server")
		store.Close() //nolint:errcheck
	}()
}
