package main

import (
	"log"

	"github.com/joho/godotenv"

	"transcribot/internal/cmd"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on the process environment")
	}

	cmd.Run()
}
