package main

import (
	"fmt"
	"os"
	"os/exec"
)

func main() {
	fmt.Println("🚀 Setting up EventHub Development Environment")

	// Check Docker
	if err := checkDocker(); err != nil {
		fmt.Printf("⚠️  Docker issue detected: %v\n", err)
		fmt.Println("💡 You can still run with KAFKA_MOCK_MODE=true")
		return
	}

	fmt.Println("✅ Docker is running")
	fmt.Println("🐳 Starting MongoDB, Kafka and Redis services...")

	cmd := exec.Command("docker-compose", "up", "-d", "mongodb", "kafka", "redis")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		fmt.Printf("❌ Failed to start services: %v\n", err)
		fmt.Println("💡 Try running with KAFKA_MOCK_MODE=true")
		return
	}

	fmt.Println("✅ Services started successfully!")
	fmt.Println("🎯 Run: go run .")
}

func checkDocker() error {
	cmd := exec.Command("docker", "info")
	return cmd.Run()
}
