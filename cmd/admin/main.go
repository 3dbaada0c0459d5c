package main

import (
	"crypto/rand"
	"encoding/base64"
	"flag"
	"fmt"
	"log"
	"strings"

	"aiResume/internal/auth"
)

// 生成管理员口令的 bcrypt 哈希，输出用于 ADMIN_PASSWORD_HASH 环境变量。
// 不传 --password 时随机生成一个口令并一并打印。
func main() {
	password := flag.String("password", "", "管理员口令（可选，缺省时随机生成）")
	flag.Parse()

	p := strings.TrimSpace(*password)
	generated := false
	if p == "" {
		random, err := generateRandomPassword(24)
		if err != nil {
			log.Fatalf("generate password: %v", err)
		}
		p = random
		generated = true
	}

	hashed, err := auth.HashPassword(p)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	if generated {
		fmt.Printf("口令: %s\n", p)
		fmt.Printf("提示：该口令仅显示一次，请妥善保存。\n")
	}
	fmt.Printf("ADMIN_PASSWORD_HASH=%s\n", hashed)
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
