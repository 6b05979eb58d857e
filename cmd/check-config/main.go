package main

import (
	"flag"
	"fmt"
	"log"

	"jarvis/internal/config"
)

func main() {
	path := flag.String("config", "config.json", "path to config file")
	envFile := flag.String("env", ".env", "path to dotenv file")
	flag.Parse()

	cfg, err := config.Load(*path, *envFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	fmt.Println("Configuration loaded successfully!")
	fmt.Printf("Server: %s (secure cookies: %v)\n", cfg.Server.Addr(), cfg.Server.SecureCookies)
	fmt.Printf("Database: %s\n", cfg.Database.Driver)
	fmt.Printf("Chat provider: %s %s\n", cfg.ChatProvider.Type, cfg.ChatProvider.Model)
	fmt.Printf("Classifier provider: %s %s (max attempts %d)\n", cfg.ClassifierProvider.Type, cfg.ClassifierProvider.Model, cfg.Intent.MaxAttempts)
	fmt.Printf("Search endpoint: %s\n", cfg.Search.Endpoint)
	fmt.Printf("Mail enabled: %v\n", cfg.Mail.Enabled())
	fmt.Printf("Skills: %v (%s)\n", cfg.Skills.Enabled, cfg.Skills.Dir)
	fmt.Printf("Log level: %s\n", cfg.Logging.Level)

	for _, w := range cfg.Warnings() {
		fmt.Printf("WARNING: %s\n", w)
	}
}
