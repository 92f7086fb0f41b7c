package config

import (
	"os"
	"strings"
	"sync"
)

// DefaultDockerHostAlias is the name Docker Desktop gives the host machine.
const DefaultDockerHostAlias = "host.docker.internal"

var (
	isDockerOnce   sync.Once
	isDockerResult bool
)

// IsRunningInDocker reports whether /.dockerenv exists. The result is cached.
func IsRunningInDocker() bool {
	isDockerOnce.Do(func() {
		_, err := os.Stat("/.dockerenv")
		isDockerResult = err == nil
	})
	return isDockerResult
}

// ResolveStoreHost rewrites a loopback store host to the Docker host alias
// when running in a container, so stores on the developer machine stay
// reachable. DOCKER_HOST_ALIAS overrides the alias.
func ResolveStoreHost(host string) string {
	return resolveStoreHost(host, IsRunningInDocker())
}

func resolveStoreHost(host string, inDocker bool) string {
	if !inDocker || !isLoopback(host) {
		return host
	}
	if alias := strings.TrimSpace(os.Getenv("DOCKER_HOST_ALIAS")); alias != "" {
		return alias
	}
	return DefaultDockerHostAlias
}

func isLoopback(host string) bool {
	switch strings.ToLower(strings.Trim(host, "[]")) {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}
