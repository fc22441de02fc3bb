// Command transitcore is the composition root: it parses configuration,
// opens the persistent store, and wires every core service together.
// Route tables and the HTTP/RPC transport that would call into these
// services are out of scope (spec.md §1 Non-goals), so unlike the
// teacher's main.go this binary never starts a listener — it stops once
// every service is constructed and the GTFS reconciler (the one
// component meant to run standalone, spec.md §5 "batch, runs outside
// the request path") has been invoked once against the configured feed.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/slack-go/slack"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/intermodalis/transitcore/audit"
	"github.com/intermodalis/transitcore/auditnotify"
	"github.com/intermodalis/transitcore/auth"
	"github.com/intermodalis/transitcore/captcha"
	"github.com/intermodalis/transitcore/contrib"
	"github.com/intermodalis/transitcore/gtfs"
	"github.com/intermodalis/transitcore/objstore"
	"github.com/intermodalis/transitcore/picpipeline"
	"github.com/intermodalis/transitcore/sqlstore"
)

var (
	persistentDBSource  = flag.String("persistent-db", "sqlite:./transitcore.db", "Data source for the persistent DB (supported drivers: sqlite, postgres)")
	objectStoreEndpoint = flag.String("objstore-endpoint", "127.0.0.1:9000", "S3-compatible endpoint backing the picture blob store")
	objectStoreBucket   = flag.String("objstore-bucket", "transitcore-pictures", "Bucket pictures are stored under")
	objectStoreAccess   = flag.String("objstore-access-key", "", "Access key for the object store")
	objectStoreSecret   = flag.String("objstore-secret-key", "", "Secret key for the object store")
	objectStoreSSL      = flag.Bool("objstore-ssl", false, "Use TLS when talking to the object store")

	slackToken   = flag.String("slack-token", "", "Bot token for high-signal audit-event relaying; if empty, audit notifications are a no-op")
	slackChannel = flag.String("slack-audit-channel", "", "Channel id audit notifications are posted to")

	accessTTL     = flag.Duration("access-ttl", 15*time.Minute, "Access token lifetime")
	refreshTTL    = flag.Duration("refresh-ttl", 30*24*time.Hour, "Refresh token (session) lifetime")
	managementTTL = flag.Duration("management-ttl", 365*24*time.Hour, "Management token lifetime")
)

func main() {
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	errg, ctx := errgroup.WithContext(context.Background())

	db, err := sqlstore.Open(logger.Named("sqlstore"), *persistentDBSource)
	if err != nil {
		logger.Fatal("could not open persistent db", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("closing persistent db", zap.Error(err))
		}
	}()

	minioClient, err := minio.New(*objectStoreEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(*objectStoreAccess, *objectStoreSecret, ""),
		Secure: *objectStoreSSL,
	})
	if err != nil {
		logger.Fatal("could not construct object store client", zap.Error(err))
	}
	blobs := objstore.New(minioClient, *objectStoreBucket)

	var notifier audit.Notifier = audit.NullNotifier{}
	if *slackToken != "" && *slackChannel != "" {
		notifier = auditnotify.NewRelay(logger.Named("auditnotify"), slack.New(*slackToken), *slackChannel)
	}

	auditSvc := audit.NewService(logger.Named("audit"), db, notifier)

	keys := auth.KeySet{
		AccessSecret:     mustSigningKey(logger, "TRANSITCORE_ACCESS_SECRET"),
		RefreshSecret:    mustSigningKey(logger, "TRANSITCORE_REFRESH_SECRET"),
		ManagementSecret: mustSigningKey(logger, "TRANSITCORE_MANAGEMENT_SECRET"),
		AccessTTL:        *accessTTL,
		RefreshTTL:       *refreshTTL,
		ManagementTTL:    *managementTTL,
	}
	captchaStore := captcha.New(time.Now)
	authSvc := auth.NewService(logger.Named("auth"), db, keys, captchaStore, auditSvc, time.Now)

	contribEngine := contrib.NewEngine(logger.Named("contrib"), db, time.Now)

	pipeline := picpipeline.NewPipeline(logger.Named("picpipeline"), db, blobs, time.Now)

	// authSvc, contribEngine and pipeline have no caller in this binary: the
	// HTTP/RPC layer that would route requests to them is out of scope here
	// (spec.md §1 Non-goals). A real deployment hands these three to that
	// transport layer instead of constructing them standalone.
	services{auth: authSvc, contrib: contribEngine, pictures: pipeline}.logReady(logger)

	errg.Go(func() error {
		return runGTFSReconciliationOnce(ctx, logger.Named("gtfs"))
	})

	if err := errg.Wait(); err != nil {
		logger.Fatal("exiting", zap.Error(err))
	}
}

// runGTFSReconciliationOnce is a placeholder invocation point: a real
// deployment would load a GTFS feed export and the gtfs_stop_id mapping
// from configuration, then call gtfs.Reconcile and persist its
// RouteResults for a moderator to review. Feed acquisition (fetching,
// parsing GTFS CSVs) is outside this core's scope (spec.md §1 "the GTFS
// pattern-to-subroute pairing algorithm" names the algorithm, not the
// importer), so this stub runs the algorithm against an empty feed just
// to confirm the wiring compiles and returns cleanly.
func runGTFSReconciliationOnce(ctx context.Context, logger *zap.Logger) error {
	results, err := gtfs.Reconcile(ctx, gtfs.Feed{}, gtfs.StopMapping{}, nil, nil)
	if err != nil {
		return err
	}
	logger.Info("gtfs reconciliation pass complete", zap.Int("routes", len(results)))
	return nil
}

// services bundles the request-facing components a transport layer would
// dispatch to; this binary only constructs and logs them.
type services struct {
	auth     *auth.Service
	contrib  *contrib.Engine
	pictures *picpipeline.Pipeline
}

func (s services) logReady(logger *zap.Logger) {
	logger.Info("transitcore services constructed",
		zap.Bool("auth", s.auth != nil),
		zap.Bool("contrib", s.contrib != nil),
		zap.Bool("pictures", s.pictures != nil),
	)
}

func mustSigningKey(logger *zap.Logger, envVar string) []byte {
	key := os.Getenv(envVar)
	if key == "" {
		logger.Fatal("missing required signing key environment variable", zap.String("var", envVar))
	}
	return []byte(key)
}
