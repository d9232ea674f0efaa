// Command seed creates the default room template and the first admin
// account.  It is safe to run repeatedly.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-seance-booking/internal/config"
	"github.com/iliyamo/cinema-seance-booking/internal/database"
	"github.com/iliyamo/cinema-seance-booking/internal/logging"
	"github.com/iliyamo/cinema-seance-booking/internal/model"
	"github.com/iliyamo/cinema-seance-booking/internal/repository"
)

// Geometry of the default room.
const (
	defaultRoomName  = "Salle 1"
	defaultRows      = 15
	defaultRowLength = 23
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("could not read .env")
	}
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, os.Stdout)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		logrus.WithError(err).Fatal("database unavailable")
	}
	defer db.Close()

	if err := seedRoom(ctx, repository.NewRoomRepo(db)); err != nil {
		logrus.WithError(err).Fatal("seed room")
	}
	if err := seedAdmin(ctx, repository.NewUserRepo(db), cfg.BcryptCost); err != nil {
		logrus.WithError(err).Fatal("seed admin")
	}
}

func seedRoom(ctx context.Context, rooms *repository.RoomRepo) error {
	rt := model.NewRoomTemplate(defaultRoomName, defaultRows, defaultRowLength)
	err := rooms.Create(ctx, &rt)
	switch {
	case errors.Is(err, repository.ErrConflict):
		logrus.WithField("room", defaultRoomName).Info("room template already present")
		return nil
	case err != nil:
		return err
	}
	logrus.WithFields(logrus.Fields{"room_id": rt.ID, "seats": len(rt.Seats)}).Info("room template created")
	return nil
}

func seedAdmin(ctx context.Context, users *repository.UserRepo, cost int) error {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		logrus.Warn("ADMIN_EMAIL or ADMIN_PASSWORD not set, no admin created")
		return nil
	}
	name := os.Getenv("ADMIN_USERNAME")
	if name == "" {
		name = "admin"
	}
	id, err := users.Create(ctx, name, email, password, model.RoleAdmin, cost)
	switch {
	case errors.Is(err, repository.ErrEmailExists):
		logrus.WithField("email", email).Info("admin already present")
		return nil
	case err != nil:
		return err
	}
	logrus.WithField("user_id", id).Info("admin created")
	return nil
}
