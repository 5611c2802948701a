package cmd

import (
	"context"

	"github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"
	gcmd "github.com/Laisky/go-utils/v6/cmd"
	"github.com/Laisky/zap"
	"github.com/spf13/cobra"

	adminDao "github.com/Laisky/laisky-cms/internal/web/admin/dao"
	adminSvc "github.com/Laisky/laisky-cms/internal/web/admin/service"
	"github.com/Laisky/laisky-cms/library/log"
)

var adminCMD = &cobra.Command{
	Use:   "admin",
	Short: "manage admin accounts",
	Args:  gcmd.NoExtraArgs,
}

var adminCreateCMD = &cobra.Command{
	Use:   "create",
	Short: "create an admin account",
	Args:  gcmd.NoExtraArgs,
	PreRun: func(cmd *cobra.Command, args []string) {
		if err := initialize(cmd.Context(), cmd); err != nil {
			log.Logger.Panic("init", zap.Error(err))
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return createAdmin(cmd.Context(),
			gconfig.Shared.GetString("account"),
			gconfig.Shared.GetString("password"))
	},
}

func init() {
	adminCreateCMD.Flags().String("account", "", "admin account")
	adminCreateCMD.Flags().String("password", "", "admin password, 8 to 72 bytes")
	adminCMD.AddCommand(adminCreateCMD)
	rootCMD.AddCommand(adminCMD)
}

func createAdmin(ctx context.Context, account, password string) error {
	setDefaults()

	db, err := connectMongo(ctx)
	if err != nil {
		return errors.Wrap(err, "connect mongo")
	}
	defer func() { _ = db.Close(context.Background()) }()

	store := adminDao.New(db)
	if err := store.EnsureIndexes(ctx); err != nil {
		return errors.Wrap(err, "ensure admin indexes")
	}

	// token signing is not needed to create accounts
	svc := adminSvc.New(log.Logger.Named("admin"), store, nil)
	admin, err := svc.CreateAdmin(ctx, account, password)
	if err != nil {
		return errors.Wrap(err, "create admin")
	}

	log.Logger.Info("admin created",
		zap.String("account", admin.Account),
		zap.String("id", admin.ID.Hex()))
	return nil
}
