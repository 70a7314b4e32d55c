package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/pairloop/pairloop/internal/controller"
	"github.com/pairloop/pairloop/internal/llm"
)

// newLLMClient creates an LLM client from config/env, or returns nil if no API key is configured.
func newLLMClient() *llm.Client {
	apiKey := viper.GetString("anthropic.api_key")
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil
	}
	return llm.NewClient(apiKey, viper.GetString("anthropic.model"))
}

// newRegistry builds the capability registry, or errors when no API key is
// available for the LLM-backed capabilities.
func newRegistry() (*controller.Registry, error) {
	client := newLLMClient()
	if client == nil {
		return nil, fmt.Errorf("no API key configured (set ANTHROPIC_API_KEY or anthropic.api_key)")
	}
	reg := controller.NewRegistry()
	llm.RegisterAll(reg, client)
	return reg, nil
}
