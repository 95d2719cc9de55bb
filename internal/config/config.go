package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	HTTPAddress       string
	OpenAIKey         string
	OpenAIModelID     string
	ElevenLabsKey     string
	ElevenLabsVoiceID string
	DatabasePath      string
	AgentName         string
	CompanyName       string
}

// Load reads environment variables and returns Config with sane defaults.
func Load() Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file")
	}

	addr := os.Getenv("HTTP_ADDRESS")
	if addr == "" {
		addr = ":8080"
	}

	openAIKey := os.Getenv("OPENAI_API_KEY")
	if openAIKey == "" {
		log.Println("Warning: OPENAI_API_KEY not set - transcription and reasoning will not work")
	}
	openAIModel := os.Getenv("OPENAI_MODEL_ID")
	if openAIModel == "" {
		openAIModel = "gpt-4o-mini"
	}

	elevenKey := os.Getenv("ELEVENLABS_API_KEY")
	if elevenKey == "" {
		log.Println("Warning: ELEVENLABS_API_KEY not set - TTS will not work")
	}

	voiceID := os.Getenv("ELEVENLABS_VOICE_ID")
	if voiceID == "" {
		voiceID = "JBFqnCBsd6RMkjVDRZzb"
	}

	dbPath := os.Getenv("CUSTOMER_DATABASE_PATH")
	if dbPath == "" {
		dbPath = "customer_database.json"
	}

	agentName := os.Getenv("AGENT_NAME")
	if agentName == "" {
		agentName = "Smith"
	}
	companyName := os.Getenv("COMPANY_NAME")
	if companyName == "" {
		companyName = "RichDaddy Incorporation"
	}

	log.Printf("config: HTTP_ADDRESS=%s database=%s", addr, dbPath)
	return Config{
		HTTPAddress:       addr,
		OpenAIKey:         openAIKey,
		OpenAIModelID:     openAIModel,
		ElevenLabsKey:     elevenKey,
		ElevenLabsVoiceID: voiceID,
		DatabasePath:      dbPath,
		AgentName:         agentName,
		CompanyName:       companyName,
	}
}
