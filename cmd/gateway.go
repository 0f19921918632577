// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/LeeDigitalWorks/zapfs/pkg/debug"
	"github.com/LeeDigitalWorks/zapfs/pkg/iam"
	"github.com/LeeDigitalWorks/zapfs/pkg/kvs"
	"github.com/LeeDigitalWorks/zapfs/pkg/logger"
	"github.com/LeeDigitalWorks/zapfs/pkg/metastore"
	"github.com/LeeDigitalWorks/zapfs/pkg/multipart"
	"github.com/LeeDigitalWorks/zapfs/pkg/orderedset"
	"github.com/LeeDigitalWorks/zapfs/pkg/s3api/signature"
	"github.com/LeeDigitalWorks/zapfs/pkg/storage/backend"
	"github.com/LeeDigitalWorks/zapfs/pkg/storage/index"
	"github.com/LeeDigitalWorks/zapfs/pkg/types"
	"github.com/LeeDigitalWorks/zapfs/pkg/utils"
)

// GatewayOpts holds all configuration for the gateway server.
type GatewayOpts struct {
	BindAddr  string
	HTTPPort  int
	DebugPort int

	DataDir        string
	RedisAddr      string
	FlushThreshold int
	BucketCache    bool

	AccessKey string
	SecretKey string
}

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Start the S3 multipart upload gateway",
	Long: `Start a zapfs gateway that accepts S3 multipart upload part PUTs,
verifies request signatures, and streams part bytes to a storage backend.`,
	Run: runGateway,
}

func init() {
	rootCmd.AddCommand(gatewayCmd)

	f := gatewayCmd.Flags()
	f.String("bind_addr", "0.0.0.0:8000", "Bind address (host:port); only the host is used, ports come from http_port and debug_port")
	f.Int("http_port", 8000, "HTTP port for the S3 API")
	f.Int("debug_port", 8010, "Debug/metrics HTTP port")

	f.String("data_dir", filepath.Join(os.TempDir(), "zapfs-gateway"), "Directory for the local storage backend and bucket cache")
	f.String("redis_addr", "127.0.0.1:6379", "Ordered-set store address")
	f.Int("flush_threshold", 1<<20, "Bytes buffered before a part's body is flushed to the backend")
	f.Bool("bucket_cache", true, "Cache bucket metadata in a local read-through index")

	f.String("access_key", "", "Bootstrap access key (or set ZAPFS_ACCESS_KEY)")
	f.String("secret_key", "", "Bootstrap secret key (or set ZAPFS_SECRET_KEY)")

	viper.BindPFlags(f)
}

func loadGatewayOpts(cmd *cobra.Command) GatewayOpts {
	f := NewFlagLoader(cmd)
	return GatewayOpts{
		BindAddr:       f.String("bind_addr"),
		HTTPPort:       f.Int("http_port"),
		DebugPort:      f.Int("debug_port"),
		DataDir:        f.String("data_dir"),
		RedisAddr:      f.String("redis_addr"),
		FlushThreshold: f.Int("flush_threshold"),
		BucketCache:    f.Bool("bucket_cache"),
		AccessKey:      f.String("access_key"),
		SecretKey:      f.String("secret_key"),
	}
}

func runGateway(cmd *cobra.Command, args []string) {
	utils.LoadConfiguration("gateway", false)
	opts := loadGatewayOpts(cmd)

	debug.SetNotReady()

	if err := os.MkdirAll(opts.DataDir, 0o755); err != nil {
		logger.Fatal().Err(err).Str("data_dir", opts.DataDir).Msg("failed to create data directory")
	}

	rdb := redis.NewClient(&redis.Options{Addr: opts.RedisAddr})
	shim := kvs.New(orderedset.NewRedisClient(rdb))

	stores := &multipart.Stores{
		Buckets:   newBucketStore(shim, opts),
		Multipart: metastore.NewMultipartStore(shim),
		Parts:     metastore.NewPartStore(shim),
	}

	backendMgr := backend.NewManager()
	if err := backendMgr.Add("local", types.BackendConfig{
		Type: types.StorageTypeLocal,
		Path: filepath.Join(opts.DataDir, "parts"),
	}); err != nil {
		logger.Fatal().Err(err).Msg("failed to create local storage backend")
	}
	be, _ := backendMgr.Get("local")

	iamManager := iam.NewManager(bootstrapCredentialStore(opts))
	verifier := signature.NewV4Verifier(iamManager)

	gw := &gatewayHandler{
		stores:         stores,
		backend:        be,
		verifier:       verifier,
		flushThreshold: opts.FlushThreshold,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("PUT /{bucket}/{object...}", gw.handlePutPart)

	bindHost, _, err := net.SplitHostPort(opts.BindAddr)
	if err != nil {
		logger.Fatal().Err(err).Str("bind_addr", opts.BindAddr).Msg("invalid bind_addr, expected host:port")
	}

	httpServer := startHTTPServer(mux, bindHost, opts.HTTPPort)
	debugServer := startHTTPServer(debug.GetMux(), bindHost, opts.DebugPort)

	debug.SetReady()
	logger.Info().Str("bind_addr", opts.BindAddr).Msg("gateway ready")

	waitForShutdown()

	debug.SetNotReady()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctx)
	_ = debugServer.Shutdown(ctx)
	_ = backendMgr.Close()
	_ = rdb.Close()
}

// newBucketStore wires an optional goleveldb read-through cache in front
// of the bucket collaborator; multipart and part metadata are never cached
// since they are read once per part upload and change on every write.
func newBucketStore(shim *kvs.Shim, opts GatewayOpts) *metastore.BucketStore {
	if !opts.BucketCache {
		return metastore.NewBucketStore(shim)
	}

	cache, err := index.NewLevelDBIndexer[string, metastore.Bucket](
		filepath.Join(opts.DataDir, "bucket-cache"),
		&opt.Options{},
		func(k string) []byte { return []byte(k) },
		func(b []byte) (string, error) { return string(b), nil },
	)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to open bucket cache, falling back to uncached bucket store")
		return metastore.NewBucketStore(shim)
	}
	return metastore.NewBucketStoreWithCache(shim, cache)
}

// bootstrapCredentialStore seeds a single principal from flags/env, since
// full IAM user provisioning is out of scope for the gateway.
func bootstrapCredentialStore(opts GatewayOpts) iam.CredentialStore {
	store := iam.NewMemoryStore()

	accessKey := opts.AccessKey
	if accessKey == "" {
		accessKey = os.Getenv("ZAPFS_ACCESS_KEY")
	}
	secretKey := opts.SecretKey
	if secretKey == "" {
		secretKey = os.Getenv("ZAPFS_SECRET_KEY")
	}
	if accessKey == "" || secretKey == "" {
		accessKey = "zapfsadmin"
		secretKey = uuid.NewString()
		logger.Warn().Str("access_key", accessKey).Msg("no bootstrap credentials configured, generated an ephemeral one")
	}

	if err := store.CreateUser(context.Background(), &iam.Identity{
		Name:    "bootstrap",
		Account: &iam.Account{DisplayName: "bootstrap", ID: "bootstrap"},
		Credentials: []*iam.Credential{
			{AccessKey: accessKey, SecretKey: secretKey, Status: "Active"},
		},
	}); err != nil {
		logger.Fatal().Err(err).Msg("failed to seed bootstrap credential")
	}
	return store
}

func startHTTPServer(handler http.Handler, ip string, port int) *http.Server {
	listener, err := utils.NewListener(utils.JoinHostPort(ip, port), 0)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create HTTP listener")
	}
	httpServer := &http.Server{Handler: handler}
	go func() {
		logger.Info().Str("addr", utils.JoinHostPort(ip, port)).Msg("starting HTTP server")
		if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()
	return httpServer
}

func waitForShutdown() {
	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	<-stopChan
}
