// config/config.go
package config

import (
	"log"
	"os"
	"time"
)

var (
	Port          string
	DatabaseDSN   string
	JWTKey        []byte
	JWTExpiration time.Duration
)

func LoadConfig() {
	Port = os.Getenv("PORT")
	if Port == "" {
		Port = "8080"
	}

	DatabaseDSN = os.Getenv("DATABASE_DSN")
	if DatabaseDSN == "" {
		DatabaseDSN = "itin:itin@tcp(localhost:3306)/itin?charset=utf8mb4&parseTime=True&loc=Local"
	}

	JWTKey = []byte(os.Getenv("JWT_SECRET"))
	if len(JWTKey) == 0 {
		JWTKey = []byte("secret")
	}

	expireStr := os.Getenv("JWT_EXPIRE")
	dur := 24 * time.Hour
	if expireStr != "" {
		if expireStr == "7d" {
			dur = 7 * 24 * time.Hour
		} else {
			var err error
			dur, err = time.ParseDuration(expireStr)
			if err != nil {
				log.Printf("Invalid JWT_EXPIRE: %s, using 24h", expireStr)
				dur = 24 * time.Hour
			}
		}
	}
	JWTExpiration = dur
}
