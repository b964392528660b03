package tracker

import (
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
)

// suggestCategory groups well-known configuration files.
type suggestCategory struct {
	name  string
	files []string
}

// wellKnown lists common dotfile locations by category. Paths are offered
// as suggestions only when they exist on disk.
var wellKnown = []suggestCategory{
	{
		name: "Shell",
		files: []string{
			"~/.bashrc",
			"~/.zshrc",
			"~/.profile",
			"~/.bash_profile",
			"~/.bash_aliases",
			"~/.zprofile",
			"~/.config/fish/config.fish",
			"~/.config/nushell/config.nu",
			"~/.kshrc",
			"~/.tcshrc",
		},
	},
	{
		name: "VCS",
		files: []string{
			"~/.gitconfig",
			"~/.gitignore_global",
			"~/.gitmessage",
			"~/.gitattributes",
			"~/.hgrc",
		},
	},
	{
		name: "Tmux",
		files: []string{
			"~/.tmux.conf",
			"~/.config/tmux/tmux.conf",
		},
	},
	{
		name: "SSH",
		files: []string{
			"~/.ssh/config",
		},
	},
	{
		name: "Editors",
		files: []string{
			"~/.vimrc",
			"~/.config/nvim/init.vim",
			"~/.config/nvim/init.lua",
			"~/.emacs",
			"~/.emacs.d/init.el",
			"~/.ideavimrc",
			"~/.config/helix/config.toml",
		},
	},
	{
		name: "Terminal",
		files: []string{
			"~/.config/alacritty/alacritty.yml",
			"~/.config/alacritty/alacritty.toml",
			"~/.config/kitty/kitty.conf",
			"~/.wezterm.lua",
			"~/.config/starship.toml",
		},
	},
	{
		name: "X11",
		files: []string{
			"~/.xinitrc",
			"~/.Xresources",
			"~/.xprofile",
		},
	},
}

// WellKnownDotfiles returns the curated suggestion paths that exist on the
// given filesystem, with ~ expanded.
func WellKnownDotfiles(fs afero.Fs) []string {
	var out []string
	for _, cat := range wellKnown {
		for _, f := range cat.files {
			path, err := expandHome(f)
			if err != nil {
				continue
			}
			info, err := fs.Stat(path)
			if err != nil || info.IsDir() {
				continue
			}
			out = append(out, path)
		}
	}
	return out
}

// expandHome resolves a leading ~ to the user's home directory.
func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return filepath.Clean(path), nil
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", err
	}
	return filepath.Clean(expanded), nil
}
