package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/0chain/imagestore/code/go/0chain.net/core/common"
	"github.com/0chain/imagestore/code/go/0chain.net/core/logging"
	"github.com/0chain/imagestore/code/go/0chain.net/imagecore/config"
	"github.com/0chain/imagestore/code/go/0chain.net/imagecore/handler"
	"github.com/0chain/imagestore/code/go/0chain.net/imagecore/ledger"
)

var startTime time.Time

func initHandlers(r *mux.Router, store ledger.Store) {
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "<div>Running since %v ...</div>\n", startTime)
		fmt.Fprintf(w, "<div>Ledger backend: %v, current block: %v</div>\n",
			config.Configuration.LedgerBackend, store.CurrentBlock())
	})

	handler.SetupHandlers(r)
}

func startHttpServer(store ledger.Store) {
	mode := config.DeploymentProduction
	if config.Development() {
		mode = config.DeploymentDevelopment
	}

	r := mux.NewRouter()
	initHandlers(r, store)
	rHandler := handler.UseCORS()(r)
	if config.Development() {
		rHandler = handlers.CombinedLoggingHandler(os.Stdout, rHandler)
	}

	address := ":" + strconv.Itoa(config.Configuration.Port)

	logging.Logger.Info("Starting imagestore",
		zap.Int("available_cpus", runtime.NumCPU()),
		zap.Int("port", config.Configuration.Port),
		zap.String("ledger_backend", config.Configuration.LedgerBackend),
		zap.String("mode", mode))

	var server *http.Server
	if config.Development() {
		// No WriteTimeout setup to enable pprof
		server = &http.Server{
			Addr:              address,
			ReadHeaderTimeout: 30 * time.Second,
			MaxHeaderBytes:    1 << 20,
			Handler:           rHandler,
		}
	} else {
		server = &http.Server{
			Addr:              address,
			ReadHeaderTimeout: 30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       30 * time.Second,
			MaxHeaderBytes:    1 << 20,
			Handler:           rHandler,
		}
	}

	common.HandleShutdown(server)
	handleStoreShutdown(common.GetRootContext(), store)

	logging.Logger.Info("Ready to listen to the requests")
	fmt.Print("[5/5] start http server	[OK]\n")
	startTime = time.Now().UTC()

	log.Fatal(server.ListenAndServe())
}
