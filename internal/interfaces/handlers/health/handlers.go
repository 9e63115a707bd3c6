package health

import (
	healthsvc "homilet-backend/internal/application/health"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Handlers struct {
	DB  *gorm.DB
	Rdb *redis.Client
}

type gormPinger struct{ db *gorm.DB }

func (p gormPinger) Ping() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// GET /api/test — liveness probe plus dependency status
func (h *Handlers) Test(c *fiber.Ctx) error {
	var pinger healthsvc.DBPinger
	if h.DB != nil {
		pinger = gormPinger{db: h.DB}
	}
	result := healthsvc.Collect(c.Context(), h.Rdb, pinger)

	status := 200
	if result.Status != "ok" {
		status = 503
	}
	return c.Status(status).JSON(fiber.Map{
		"success":      result.Status == "ok",
		"message":      "API is working",
		"status":       result.Status,
		"dependencies": result.Dependencies,
		"traffic":      result.Traffic,
	})
}
