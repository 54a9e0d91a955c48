package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"gorm.io/gorm/logger"

	"edtech/internal/auth"
	"edtech/internal/config"
	"edtech/internal/database"
)

func main() {
	var (
		username    = flag.String("username", "", "初始管理员用户名")
		email       = flag.String("email", "", "初始管理员邮箱（默认 <username>@localhost）")
		seedCourses = flag.Bool("seed-courses", false, "写入示例课程（按标题去重）")
		dbHost      = flag.String("db-host", "", "数据库 Host（可选，默认读 DATABASE_HOST）")
		dbPort      = flag.Int("db-port", 0, "数据库 Port（可选，默认读 DATABASE_PORT）")
		dbName      = flag.String("db-name", "", "数据库名（可选，默认读 POSTGRES_DB）")
		dbUser      = flag.String("db-user", "", "数据库用户（可选，默认读 POSTGRES_USER）")
		dbPass      = flag.String("db-password", "", "数据库密码（可选，默认读 POSTGRES_PASSWORD）")
		sslMode     = flag.String("db-sslmode", "", "数据库 SSLMODE（可选，默认读 DATABASE_SSLMODE）")
	)
	flag.Parse()

	u := strings.TrimSpace(*username)
	if u == "" && !*seedCourses {
		log.Fatal("nothing to do: pass --username and/or --seed-courses")
	}

	dbCfg, err := loadDatabaseConfig(*dbHost, *dbPort, *dbName, *dbUser, *dbPass, *sslMode)
	if err != nil {
		log.Fatalf("load database config: %v", err)
	}

	db, err := database.InitDatabase(dbCfg, logger.Warn)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	ctx := context.Background()

	if u != "" {
		addr := strings.TrimSpace(*email)
		if addr == "" {
			addr = u + "@localhost"
		}
		if err := createAdmin(ctx, database.NewAccountStore(db), u, addr); err != nil {
			log.Fatalf("create admin: %v", err)
		}
	}

	if *seedCourses {
		inserted, err := database.NewCourseStore(db).SeedCourses(ctx, sampleCourses())
		if err != nil {
			log.Fatalf("seed courses: %v", err)
		}
		fmt.Printf("示例课程已写入：新增 %d 门\n", inserted)
	}
}

// createAdmin 创建已验证的管理员账号，随机密码只打印一次。
func createAdmin(ctx context.Context, accounts *database.AccountStore, username, email string) error {
	password, err := generateRandomPassword(24)
	if err != nil {
		return fmt.Errorf("generate password: %w", err)
	}
	hashed, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	account := &database.Account{
		Username:     username,
		Email:        email,
		PasswordHash: hashed,
		Verified:     true,
		Role:         database.RoleAdmin,
	}
	if err := accounts.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return fmt.Errorf("account %q or email %q already exists", username, email)
		}
		return err
	}

	fmt.Printf("已创建管理员账号：\n")
	fmt.Printf("用户名: %s\n", username)
	fmt.Printf("邮箱: %s\n", email)
	fmt.Printf("初始密码: %s\n", password)
	fmt.Printf("提示：该密码仅显示一次，请妥善保存。\n")
	return nil
}

func sampleCourses() []database.Course {
	return []database.Course{
		{
			Title:       "Python for Beginners",
			Description: "Learn Python from scratch with hands-on projects.",
			Category:    "Programming",
			Price:       499,
			Rating:      4.7,
		},
		{
			Title:       "Data Science Masterclass",
			Description: "Data analysis, visualization, and machine learning using Python.",
			Category:    "Data Science",
			Price:       999,
			Rating:      4.9,
		},
		{
			Title:       "Business Analytics with Excel",
			Description: "Master Excel and analytics techniques for business decision-making.",
			Category:    "Business",
			Price:       799,
			Rating:      4.6,
		},
		{
			Title:       "UI/UX Design Bootcamp",
			Description: "Learn design principles, wireframing, and Figma prototyping.",
			Category:    "Design",
			Price:       599,
			Rating:      4.8,
		},
	}
}

// loadDatabaseConfig 合并命令行参数与环境变量，命令行优先。
func loadDatabaseConfig(host string, port int, name, user, password, sslmode string) (config.DatabaseConfig, error) {
	pick := func(flagValue string, envKeys ...string) string {
		if v := strings.TrimSpace(flagValue); v != "" {
			return v
		}
		for _, key := range envKeys {
			if v := strings.TrimSpace(os.Getenv(key)); v != "" {
				return v
			}
		}
		return ""
	}

	if port <= 0 {
		if env := strings.TrimSpace(os.Getenv("DATABASE_PORT")); env != "" {
			p, err := strconv.Atoi(env)
			if err != nil {
				return config.DatabaseConfig{}, fmt.Errorf("parse DATABASE_PORT: %w", err)
			}
			port = p
		}
	}
	if port <= 0 {
		port = 5432
	}

	cfg := config.DatabaseConfig{
		Host:     pick(host, "DATABASE_HOST"),
		Port:     port,
		Name:     pick(name, "POSTGRES_DB", "DB_NAME"),
		User:     pick(user, "POSTGRES_USER", "DB_USER"),
		Password: pick(password, "POSTGRES_PASSWORD", "DB_PASSWORD"),
		SSLMode:  pick(sslmode, "DATABASE_SSLMODE"),
	}
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "disable"
	}

	switch {
	case cfg.Name == "":
		return config.DatabaseConfig{}, errors.New("database name is required (POSTGRES_DB)")
	case cfg.User == "":
		return config.DatabaseConfig{}, errors.New("database user is required (POSTGRES_USER)")
	case cfg.Password == "":
		return config.DatabaseConfig{}, errors.New("database password is required (POSTGRES_PASSWORD)")
	}
	return cfg, nil
}

func generateRandomPassword(bytesLen int) (string, error) {
	if bytesLen <= 0 {
		bytesLen = 24
	}
	buf := make([]byte, bytesLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
