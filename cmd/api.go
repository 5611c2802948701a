package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"
	gcmd "github.com/Laisky/go-utils/v6/cmd"
	"github.com/Laisky/zap"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/Laisky/laisky-cms/internal/web"
	adminCtl "github.com/Laisky/laisky-cms/internal/web/admin/controller"
	adminDao "github.com/Laisky/laisky-cms/internal/web/admin/dao"
	adminSvc "github.com/Laisky/laisky-cms/internal/web/admin/service"
	bannerCtl "github.com/Laisky/laisky-cms/internal/web/banner/controller"
	bannerDao "github.com/Laisky/laisky-cms/internal/web/banner/dao"
	bannerSvc "github.com/Laisky/laisky-cms/internal/web/banner/service"
	blogCtl "github.com/Laisky/laisky-cms/internal/web/blog/controller"
	blogDao "github.com/Laisky/laisky-cms/internal/web/blog/dao"
	blogSvc "github.com/Laisky/laisky-cms/internal/web/blog/service"
	"github.com/Laisky/laisky-cms/library/db/mongo"
	rdb "github.com/Laisky/laisky-cms/library/db/redis"
	"github.com/Laisky/laisky-cms/library/jwt"
	"github.com/Laisky/laisky-cms/library/log"
	"github.com/Laisky/laisky-cms/library/media"
	"github.com/Laisky/laisky-cms/library/throttle"
)

const (
	mediaDriverLocal = "local"
	mediaDriverMinio = "minio"
)

var apiCMD = &cobra.Command{
	Use:   "api",
	Short: "api",
	Long:  `HTTP API service for blogs and banners`,
	Args:  gcmd.NoExtraArgs,
	PreRun: func(cmd *cobra.Command, args []string) {
		if err := initialize(cmd.Context(), cmd); err != nil {
			log.Logger.Panic("init", zap.Error(err))
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runAPI(ctx)
	},
}

func init() {
	rootCMD.AddCommand(apiCMD)
}

var settingDefaults = map[string]any{
	"settings.admin.token_ttl_hours":    24,
	"settings.admin.login_max_failures": 5,
	"settings.admin.login_lock_seconds": 900,
	"settings.web.static_dir":           "public",
	"settings.web.max_upload_images":    20,
	"settings.web.multipart_memory_mb":  32,
	"settings.media.driver":             mediaDriverLocal,
	"settings.media.concurrency":        4,
	"settings.media.local.dir":          "uploads",
	"settings.media.local.public_url":   "/uploads",
}

// setDefaults fills keys missing from settings.yml
func setDefaults() {
	for key, val := range settingDefaults {
		if gconfig.Shared.Get(key) == nil {
			gconfig.Shared.Set(key, val)
		}
	}
}

func connectMongo(ctx context.Context) (mongo.DB, error) {
	return mongo.NewDB(ctx, mongo.DialInfo{
		Addr:   gconfig.Shared.GetString("settings.db.blog.addr"),
		DBName: gconfig.Shared.GetString("settings.db.blog.db"),
		User:   gconfig.Shared.GetString("settings.db.blog.user"),
		Pwd:    gconfig.Shared.GetString("settings.db.blog.pwd"),
		AuthDB: gconfig.Shared.GetString("settings.db.blog.auth_db"),
	})
}

// connectRedis returns nil when no redis address is configured.
func connectRedis(ctx context.Context) (*rdb.DB, error) {
	addr := gconfig.Shared.GetString("settings.db.redis.addr")
	if addr == "" {
		log.Logger.Warn("redis not configured, token revocation and login throttling are disabled")
		return nil, nil
	}

	return rdb.NewDB(ctx, &redis.Options{
		Addr:     addr,
		Password: gconfig.Shared.GetString("settings.db.redis.pwd"),
		DB:       gconfig.Shared.GetInt("settings.db.redis.db"),
	})
}

func newSigner() (*jwt.JWT, error) {
	secret := gconfig.Shared.GetString("settings.secret")
	if secret == "" {
		return nil, errors.New("settings.secret is required")
	}

	ttl := time.Duration(gconfig.Shared.GetInt("settings.admin.token_ttl_hours")) * time.Hour
	return jwt.New([]byte(secret), ttl)
}

// newUploader returns the uploader and the local directory to serve, if any.
func newUploader(ctx context.Context) (up media.Uploader, localDir string, err error) {
	switch driver := strings.ToLower(gconfig.Shared.GetString("settings.media.driver")); driver {
	case mediaDriverMinio:
		up, err = media.NewMinio(ctx, media.MinioConfig{
			Endpoint:  gconfig.Shared.GetString("settings.media.minio.endpoint"),
			AccessKey: gconfig.Shared.GetString("settings.media.minio.access_key"),
			SecretKey: gconfig.Shared.GetString("settings.media.minio.secret_key"),
			Bucket:    gconfig.Shared.GetString("settings.media.minio.bucket"),
			Prefix:    gconfig.Shared.GetString("settings.media.minio.prefix"),
			Secure:    gconfig.Shared.GetBool("settings.media.minio.secure"),
			PublicURL: gconfig.Shared.GetString("settings.media.minio.public_url"),
		})
		if err != nil {
			return nil, "", errors.Wrap(err, "new minio uploader")
		}
	case mediaDriverLocal:
		localDir = gconfig.Shared.GetString("settings.media.local.dir")
		up, err = media.NewLocal(localDir, gconfig.Shared.GetString("settings.media.local.public_url"))
		if err != nil {
			return nil, "", errors.Wrap(err, "new local uploader")
		}
	default:
		return nil, "", errors.Errorf("unknown media driver %q", driver)
	}

	return media.NewResizingUploader(up, gconfig.Shared.GetInt("settings.media.max_width")), localDir, nil
}

func runAPI(ctx context.Context) error {
	setDefaults()
	logger := log.Logger.Named("api")

	signer, err := newSigner()
	if err != nil {
		return errors.Wrap(err, "new jwt")
	}

	db, err := connectMongo(ctx)
	if err != nil {
		return errors.Wrap(err, "connect mongo")
	}
	defer func() {
		if err := db.Close(context.Background()); err != nil {
			logger.Error("close mongo", zap.Error(err))
		}
	}()

	redisCli, err := connectRedis(ctx)
	if err != nil {
		return errors.Wrap(err, "connect redis")
	}

	uploader, localDir, err := newUploader(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	adminStore := adminDao.New(db)
	blogStore := blogDao.New(db)
	if err := adminStore.EnsureIndexes(ctx); err != nil {
		return errors.Wrap(err, "ensure admin indexes")
	}
	if err := blogStore.EnsureIndexes(ctx); err != nil {
		return errors.Wrap(err, "ensure blog indexes")
	}

	var adminOpts []adminSvc.Option
	if redisCli != nil {
		defer func() { _ = redisCli.Close() }()
		adminOpts = append(adminOpts,
			adminSvc.WithRevoker(redisCli),
			adminSvc.WithLoginLimiter(redisCli,
				gconfig.Shared.GetInt("settings.admin.login_max_failures"),
				time.Duration(gconfig.Shared.GetInt("settings.admin.login_lock_seconds"))*time.Second),
		)
	}

	concurrency := gconfig.Shared.GetInt("settings.media.concurrency")
	ctls := web.Controllers{
		Admin: adminCtl.New(
			adminSvc.New(log.Logger.Named("admin"), adminStore, signer, adminOpts...),
			gconfig.Shared.GetBool("settings.admin.cookie_secure")),
		Blog: blogCtl.New(blogSvc.New(log.Logger.Named("blog"), blogStore, uploader,
			blogSvc.WithUploadConcurrency(concurrency),
			blogSvc.WithMaxImages(gconfig.Shared.GetInt("settings.web.max_upload_images")))),
		Banner: bannerCtl.New(bannerSvc.New(log.Logger.Named("banner"), bannerDao.New(db), uploader)),
	}

	th, err := throttle.New(throttle.Config{
		TotalPerSec:  float64(gconfig.Shared.GetInt("settings.web.rate_limit.total_per_sec")),
		TotalBurst:   float64(gconfig.Shared.GetInt("settings.web.rate_limit.total_burst")),
		ClientPerSec: float64(gconfig.Shared.GetInt("settings.web.rate_limit.client_per_sec")),
		ClientBurst:  float64(gconfig.Shared.GetInt("settings.web.rate_limit.client_burst")),
	})
	if err != nil {
		return errors.Wrap(err, "new throttle")
	}

	server, err := web.NewServer(ctls, web.Options{
		CORSOrigins:        gconfig.Shared.GetStringSlice("settings.web.cors_origins"),
		StaticDir:          gconfig.Shared.GetString("settings.web.static_dir"),
		UploadDir:          localDir,
		MaxMultipartMemory: int64(gconfig.Shared.GetInt("settings.web.multipart_memory_mb")) << 20,
		Throttle:           th,
		EnableMetric:       gconfig.Shared.GetBool("settings.web.enable_metric"),
		Debug:              gconfig.Shared.GetBool("debug"),
	})
	if err != nil {
		return errors.Wrap(err, "new server")
	}

	return web.RunServer(ctx, gconfig.Shared.GetString("listen"), server)
}
