package conventions

import "github.com/joeynyc/repobrief/internal/manifest"

type marker struct {
	path  string
	label string
}

var linterMarkers = []marker{
	{".eslintrc", "ESLint"},
	{".eslintrc.js", "ESLint"},
	{".eslintrc.cjs", "ESLint"},
	{".eslintrc.json", "ESLint"},
	{".eslintrc.yml", "ESLint"},
	{"eslint.config.js", "ESLint"},
	{"eslint.config.mjs", "ESLint"},
	{".prettierrc", "Prettier"},
	{".prettierrc.json", "Prettier"},
	{".prettierrc.js", "Prettier"},
	{"prettier.config.js", "Prettier"},
	{"biome.json", "Biome"},
	{".golangci.yml", "golangci-lint"},
	{".golangci.yaml", "golangci-lint"},
	{"ruff.toml", "Ruff"},
	{".ruff.toml", "Ruff"},
	{".flake8", "Flake8"},
	{"rustfmt.toml", "rustfmt"},
	{".rustfmt.toml", "rustfmt"},
	{"clippy.toml", "Clippy"},
	{".swiftlint.yml", "SwiftLint"},
	{".rubocop.yml", "RuboCop"},
	{".editorconfig", "EditorConfig"},
}

var ciMarkers = []marker{
	{".github/workflows", "GitHub Actions"},
	{".gitlab-ci.yml", "GitLab CI"},
	{".circleci/config.yml", "CircleCI"},
	{"Jenkinsfile", "Jenkins"},
	{"azure-pipelines.yml", "Azure Pipelines"},
	{".travis.yml", "Travis CI"},
	{"bitbucket-pipelines.yml", "Bitbucket Pipelines"},
	{".buildkite", "Buildkite"},
}

var monorepoMarkers = []marker{
	{"turbo.json", "Turborepo"},
	{"nx.json", "Nx"},
	{"lerna.json", "Lerna"},
	{"pnpm-workspace.yaml", "pnpm workspaces"},
	{"rush.json", "Rush"},
	{"go.work", "Go workspaces"},
}

var containerMarkers = []marker{
	{"Dockerfile", "Dockerfile"},
	{"Containerfile", "Containerfile"},
	{"docker-compose.yml", "Docker Compose"},
	{"docker-compose.yaml", "Docker Compose"},
	{"compose.yml", "Docker Compose"},
	{"compose.yaml", "Docker Compose"},
	{".dockerignore", ".dockerignore"},
}

// present returns the labels of existing markers, deduplicated, in table order.
func present(r *manifest.Reader, markers []marker) []string {
	labels := []string{}
	seen := make(map[string]bool)
	for _, m := range markers {
		if seen[m.label] || !r.Exists(m.path) {
			continue
		}
		seen[m.label] = true
		labels = append(labels, m.label)
	}
	return labels
}
