package venv

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivate(t *testing.T) {
	project := t.TempDir()
	bin := Scaffold(t, project, "venv")

	env, err := Activate(project, "venv")
	require.NoError(t, err)

	assert.Equal(t, project, env.ProjectDir)
	assert.Equal(t, filepath.Join(project, "venv"), env.Root)
	assert.Equal(t, bin, env.BinDir)
}

func TestActivate_RelativeProjectDir(t *testing.T) {
	parent := t.TempDir()
	project := filepath.Join(parent, "uno_backend")
	require.NoError(t, os.Mkdir(project, 0o755))
	Scaffold(t, project, "venv")
	t.Chdir(parent)

	env, err := Activate("uno_backend", "venv")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(env.ProjectDir))
	assert.Equal(t, "uno_backend", filepath.Base(env.ProjectDir))
}

func TestActivate_Missing(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, project string)
		dir   func(project string) string
	}{
		{
			name:  "project dir absent",
			setup: func(*testing.T, string) {},
			dir:   func(project string) string { return filepath.Join(project, "nope") },
		},
		{
			name:  "environment absent",
			setup: func(*testing.T, string) {},
			dir:   func(project string) string { return project },
		},
		{
			name: "environment is a file",
			setup: func(t *testing.T, project string) {
				require.NoError(t, os.WriteFile(filepath.Join(project, "venv"), nil, 0o644))
			},
			dir: func(project string) string { return project },
		},
		{
			name: "scripts dir absent",
			setup: func(t *testing.T, project string) {
				require.NoError(t, os.MkdirAll(filepath.Join(project, "venv"), 0o755))
			},
			dir: func(project string) string { return project },
		},
		{
			name: "no marker",
			setup: func(t *testing.T, project string) {
				require.NoError(t, os.MkdirAll(filepath.Join(project, "venv", scriptsDir), 0o755))
			},
			dir: func(project string) string { return project },
		},
		{
			name: "environment deleted",
			setup: func(t *testing.T, project string) {
				Scaffold(t, project, "venv")
				require.NoError(t, os.RemoveAll(filepath.Join(project, "venv")))
			},
			dir: func(project string) string { return project },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			project := t.TempDir()
			tt.setup(t, project)

			env, err := Activate(tt.dir(project), "venv")
			require.Error(t, err)
			assert.Nil(t, env)
			assert.ErrorIs(t, err, ErrEnvironmentMissing)
		})
	}
}

func TestActivate_PyvenvCfgIsEnough(t *testing.T) {
	project := t.TempDir()
	Scaffold(t, project, "venv")
	require.NoError(t, os.Remove(filepath.Join(project, "venv", scriptsDir, "activate")))

	_, err := Activate(project, "venv")
	assert.NoError(t, err)
}

func TestActivate_DoesNotMutateProcess(t *testing.T) {
	project := t.TempDir()
	Scaffold(t, project, "venv")
	t.Setenv("VIRTUAL_ENV", "")

	wdBefore, err := os.Getwd()
	require.NoError(t, err)
	pathBefore := os.Getenv("PATH")

	_, err = Activate(project, "venv")
	require.NoError(t, err)

	wdAfter, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, wdBefore, wdAfter)
	assert.Equal(t, pathBefore, os.Getenv("PATH"))
	assert.Empty(t, os.Getenv("VIRTUAL_ENV"))
}

func TestEnvironment_Environ(t *testing.T) {
	env := &Environment{
		ProjectDir: "/p",
		Root:       "/p/venv",
		BinDir:     "/p/venv/bin",
	}
	sep := string(os.PathListSeparator)
	base := []string{
		"HOME=/home/ci",
		"PATH=/usr/local/bin" + sep + "/usr/bin",
		"PYTHONHOME=/opt/python",
		"VIRTUAL_ENV=/old/venv",
		"LANG=C.UTF-8",
	}
	baseCopy := append([]string(nil), base...)

	got := env.Environ(base)

	assert.Equal(t, baseCopy, base, "base must not be modified")
	assert.Contains(t, got, "HOME=/home/ci")
	assert.Contains(t, got, "LANG=C.UTF-8")
	assert.Contains(t, got, "VIRTUAL_ENV=/p/venv")
	assert.Contains(t, got, "PATH=/p/venv/bin"+sep+"/usr/local/bin"+sep+"/usr/bin")
	assert.NotContains(t, got, "PYTHONHOME=/opt/python")
	assert.NotContains(t, got, "VIRTUAL_ENV=/old/venv")
}

func TestEnvironment_EnvironWithoutPath(t *testing.T) {
	env := &Environment{Root: "/p/venv", BinDir: "/p/venv/bin"}
	got := env.Environ(nil)
	assert.Equal(t, []string{"VIRTUAL_ENV=/p/venv", "PATH=/p/venv/bin"}, got)
}

func TestEnvironment_Executable(t *testing.T) {
	env := &Environment{BinDir: filepath.Join("p", "venv", scriptsDir)}
	want := filepath.Join("p", "venv", scriptsDir, "flake8")
	if runtime.GOOS == "windows" {
		want += ".exe"
	}
	assert.Equal(t, want, env.Executable("flake8"))
}
