package app

import (
	"log"

	"approvalCPT/internal/config"
	"approvalCPT/internal/database"
	"approvalCPT/internal/repository"
	"approvalCPT/internal/service"
	"approvalCPT/internal/storage"
)

func App(cfg *config.Config) (*database.DB, *repository.Repository, *service.Service) {
	db, err := database.ConnectDB(cfg)
	if err != nil {
		log.Fatalf("Не удалось подключиться к БД: %v", err)
	}

	minioClient, err := storage.NewMinIOClient(cfg)
	if err != nil {
		log.Fatalf("Не удалось инициализировать MinIO: %v", err)
	}

	repo := repository.NewRepository(db.DB)
	services := service.NewService(db, repo, cfg, minioClient)

	return db, repo, services
}
