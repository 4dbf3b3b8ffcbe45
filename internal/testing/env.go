package testing

import (
	"fmt"
	"sort"
)

// FakeEnvRepository is an in-memory env.Repository.
type FakeEnvRepository struct {
	EnvVars map[string]string
}

// NewFakeEnvRepository returns a repository holding a copy of envs.
func NewFakeEnvRepository(envs map[string]string) FakeEnvRepository {
	repo := FakeEnvRepository{EnvVars: map[string]string{}}
	for k, v := range envs {
		repo.EnvVars[k] = v
	}
	return repo
}

// Get ...
func (repo FakeEnvRepository) Get(key string) string {
	return repo.EnvVars[key]
}

// Set ...
func (repo FakeEnvRepository) Set(key, value string) error {
	repo.EnvVars[key] = value
	return nil
}

// Unset ...
func (repo FakeEnvRepository) Unset(key string) error {
	delete(repo.EnvVars, key)
	return nil
}

// List ...
func (repo FakeEnvRepository) List() []string {
	envs := make([]string, 0, len(repo.EnvVars))
	for k, v := range repo.EnvVars {
		envs = append(envs, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(envs)
	return envs
}
