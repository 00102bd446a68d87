package main

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	"github.com/yourusername/quizhost-api/internal/domain/entity"
	pgRepo "github.com/yourusername/quizhost-api/internal/repository/postgres"
	"github.com/yourusername/quizhost-api/pkg/database"
)

// Сидер применяет миграции и устанавливает стартовые фикстуры:
// dummy-вопрос, dummy-викторину и dummy-пользователя. Запись идет
// с replace=true, поэтому повторный запуск безопасен.

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func connString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		envOr("DATABASE_HOST", "localhost"),
		envOr("DATABASE_PORT", "5432"),
		envOr("DATABASE_USER", "postgres"),
		envOr("DATABASE_PASSWORD", ""),
		envOr("DATABASE_DBNAME", "quizhost_db"),
		envOr("DATABASE_SSLMODE", "disable"),
	)
}

func applyMigrations(connStr string) error {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return err
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func main() {
	connStr := connString()

	log.Println("[Seed] Применение миграций...")
	if err := applyMigrations(connStr); err != nil {
		log.Fatalf("[Seed] Ошибка миграций: %v", err)
	}

	gormDB, err := database.NewPostgresDB(connStr)
	if err != nil {
		log.Fatalf("[Seed] Ошибка подключения: %v", err)
	}

	questionRepo := pgRepo.NewQuestionRepo(gormDB)
	quizRepo := pgRepo.NewQuizRepo(gormDB)
	userRepo := pgRepo.NewUserRepo(gormDB)

	// Dummy-вопрос
	question, err := entity.NewQuestion("Is this dummy question?", []string{"Yes", "No", "Maybe"}, 0,
		entity.JSONMap{"category": "dummy"})
	if err != nil {
		log.Fatalf("[Seed] Ошибка конструирования вопроса: %v", err)
	}
	if err := questionRepo.Upsert(question, true); err != nil {
		log.Fatalf("[Seed] Ошибка записи вопроса: %v", err)
	}
	log.Printf("[Seed] Вопрос id=%s записан", question.ID)

	// Dummy-викторина: игровой вид открыт всем, полный — пустой blacklist
	quiz := entity.NewQuiz("Dummy quiz", []*entity.Question{question},
		entity.AccessPolicy{Kind: entity.AccessAnonymous},
		entity.AccessPolicy{Kind: entity.AccessBlacklist},
		entity.JSONMap{"category": "dummy"})
	if err := quizRepo.Upsert(quiz.StorageDoc(), true); err != nil {
		log.Fatalf("[Seed] Ошибка записи викторины: %v", err)
	}
	log.Printf("[Seed] Викторина id=%s записана", quiz.ID)

	// Dummy-пользователь
	user, err := entity.NewUser("Dummy_user", "123", entity.JSONMap{"favorite_color": "blue"})
	if err != nil {
		log.Fatalf("[Seed] Ошибка конструирования пользователя: %v", err)
	}
	if err := userRepo.Create(user); err != nil {
		// Повторный запуск: пользователь уже есть, это не ошибка
		log.Printf("[Seed] Пользователь не создан (вероятно, уже существует): %v", err)
	} else {
		log.Printf("[Seed] Пользователь id=%s записан", user.ID)
	}

	log.Println("[Seed] Готово")
}
