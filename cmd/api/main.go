package main

import (
	"log"

	"github.com/pmarinho/accounts-api/internal/config"
	"github.com/pmarinho/accounts-api/internal/media"
	miniorepo "github.com/pmarinho/accounts-api/internal/repository/minio"
	"github.com/pmarinho/accounts-api/internal/repository/ports"
	"github.com/pmarinho/accounts-api/internal/repository/postgres"
	"github.com/pmarinho/accounts-api/internal/service"
	httptransport "github.com/pmarinho/accounts-api/internal/transport/http"
	"github.com/pmarinho/accounts-api/internal/transport/mail"
	"github.com/pmarinho/accounts-api/internal/util"
)

func main() {
	cfg := config.Load()

	db, err := postgres.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect to database: %v", err)
	}
	defer db.Close()
	if err := postgres.Migrate(db); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	users := postgres.NewUserRepo(db)

	var sender service.MailSender
	if cfg.SMTPHost != "" {
		sender = mail.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
	} else {
		log.Println("SMTP not configured; account mail is disabled")
	}

	var storage ports.ObjectStorage
	if cfg.MinIOEndpoint != "" {
		client, err := miniorepo.NewClient(cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOUseSSL)
		if err != nil {
			log.Fatalf("connect to object storage: %v", err)
		}
		storage = miniorepo.NewStorage(client, cfg.MinIOPublicURL)
	} else {
		log.Println("MinIO not configured; avatar upload is disabled")
	}

	jwtManager := util.NewJWTManager(cfg.JWTSecret, cfg.SessionTTL)
	normalizer := media.NewNormalizer(cfg.AvatarMaxDimension)

	accounts := service.NewAccountService(users, sender, storage, normalizer, cfg.MinIOBucketAvatars)
	auth := service.NewAuthService(users, jwtManager)
	resets := service.NewPasswordResetService(users, sender, cfg.PasswordResetTTL)

	e := httptransport.NewRouter(cfg.AllowOrigins)
	httptransport.RegisterSwagger(e)
	httptransport.RegisterAuth(e, auth, resets)
	httptransport.RegisterUsers(e, accounts, auth)

	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
