package main

import (
	"archive/tar"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// githubRelease is the subset of the GitHub releases API response ecsgen
// needs to decide whether, and what, to download.
type githubRelease struct {
	TagName string `json:"tag_name"`
	Name    string `json:"name"`
	Body    string `json:"body"`
}

const releaseRepo = "emergent-company/ecsgen"

func newUpgradeCmd() *cobra.Command {
	var force, quiet bool

	cmd := &cobra.Command{
		Use:   "upgrade",
		Short: "Download and install the latest ecsgen release",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpgrade(cmd, force, quiet)
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "reinstall even if already up to date")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress release notes output")
	return cmd
}

func newRollbackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rollback",
		Short: "Restore the binary replaced by the last upgrade",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRollback(cmd)
		},
	}
}

func runUpgrade(cmd *cobra.Command, force, quiet bool) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Checking for updates... (current version: %s)\n", Version)

	latest, err := getLatestRelease()
	if err != nil {
		return fmt.Errorf("fetching latest release: %w", err)
	}

	if !force {
		if strings.TrimPrefix(Version, "v") == strings.TrimPrefix(latest.TagName, "v") {
			fmt.Fprintf(out, "ecsgen is already up to date (%s).\n", Version)
			return nil
		}
	}

	fmt.Fprintf(out, "Found new version: %s\n", latest.TagName)
	if latest.Body != "" && !quiet {
		fmt.Fprintf(out, "\n=== What's new in %s ===\n%s\n", latest.TagName, latest.Body)
	}

	if runtime.GOOS != "darwin" && runtime.GOOS != "linux" {
		return fmt.Errorf("unsupported OS for automatic upgrade: %s", runtime.GOOS)
	}
	if runtime.GOARCH != "amd64" && runtime.GOARCH != "arm64" {
		return fmt.Errorf("unsupported architecture for automatic upgrade: %s", runtime.GOARCH)
	}

	platform := fmt.Sprintf("%s-%s", runtime.GOOS, runtime.GOARCH)
	downloadURL := fmt.Sprintf("https://github.com/%s/releases/download/%s/ecsgen-%s.tar.gz", releaseRepo, latest.TagName, platform)

	tmpDir, err := os.MkdirTemp("", "ecsgen-upgrade")
	if err != nil {
		return fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	fmt.Fprintf(out, "Downloading %s...\n", downloadURL)
	tarballPath := filepath.Join(tmpDir, "ecsgen.tar.gz")
	if err := downloadFile(downloadURL, tarballPath); err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	fmt.Fprintln(out, "Extracting...")
	binaryPath, err := extractBinary(tarballPath, tmpDir)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	currentExe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("determining executable path: %w", err)
	}
	realExe, err := filepath.EvalSymlinks(currentExe)
	if err != nil {
		return fmt.Errorf("resolving symlinks: %w", err)
	}

	fmt.Fprintf(out, "Installing to %s...\n", realExe)
	backupExe := realExe + ".old"
	if err := os.Rename(realExe, backupExe); err != nil {
		if os.IsPermission(err) {
			return fmt.Errorf("permission denied; re-run with sudo: sudo ecsgen upgrade")
		}
		return fmt.Errorf("moving current binary aside: %w", err)
	}

	if err := copyFile(binaryPath, realExe); err != nil {
		os.Rename(backupExe, realExe)
		return fmt.Errorf("installing new binary: %w", err)
	}
	if err := os.Chmod(realExe, 0o755); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to chmod new binary: %v\n", err)
	}

	fmt.Fprintf(out, "Backup of previous version saved at: %s\n", backupExe)
	fmt.Fprintln(out, "To roll back: ecsgen rollback")

	verifyCmd := exec.Command(realExe, "version")
	output, err := verifyCmd.CombinedOutput()
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to verify installation: %v\n", err)
	} else if installed := strings.TrimSpace(string(output)); !strings.Contains(installed, latest.TagName) {
		return fmt.Errorf("verification failed: expected %s, got %s (restore with: mv %s %s)",
			latest.TagName, installed, backupExe, realExe)
	} else {
		fmt.Fprintf(out, "Verification successful: %s\n", installed)
	}

	fmt.Fprintf(out, "Successfully upgraded to %s\n", latest.TagName)
	return nil
}

func runRollback(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	currentExe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("determining executable path: %w", err)
	}
	realExe, err := filepath.EvalSymlinks(currentExe)
	if err != nil {
		return fmt.Errorf("resolving symlinks: %w", err)
	}

	backupExe := realExe + ".old"
	if _, err := os.Stat(backupExe); os.IsNotExist(err) {
		return fmt.Errorf("no backup found at %s (rollback is only possible after an upgrade)", backupExe)
	}

	fmt.Fprintln(out, "Rolling back to previous version...")

	var oldVersion string
	if output, err := exec.Command(backupExe, "version").CombinedOutput(); err == nil {
		oldVersion = strings.TrimSpace(string(output))
	}

	if err := os.Rename(realExe, realExe+".failed"); err != nil {
		if os.IsPermission(err) {
			return fmt.Errorf("permission denied; re-run with sudo: sudo ecsgen rollback")
		}
		return fmt.Errorf("moving current binary aside: %w", err)
	}

	if err := os.Rename(backupExe, realExe); err != nil {
		os.Rename(realExe+".failed", realExe)
		return fmt.Errorf("rollback failed: %w", err)
	}
	os.Remove(realExe + ".failed")

	if oldVersion != "" {
		fmt.Fprintf(out, "Successfully rolled back to %s\n", oldVersion)
	} else {
		fmt.Fprintln(out, "Successfully rolled back to previous version")
	}
	return nil
}

func getLatestRelease() (*githubRelease, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(fmt.Sprintf("https://api.github.com/repos/%s/releases/latest", releaseRepo))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API returned status: %s", resp.Status)
	}

	var release githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, err
	}
	return &release, nil
}

func downloadFile(url, dest string) error {
	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %s", resp.Status)
	}

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, resp.Body)
	return err
}

func extractBinary(tarballPath, destDir string) (string, error) {
	f, err := os.Open(tarballPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	gzr, err := gzip.NewReader(f)
	if err != nil {
		return "", err
	}
	defer gzr.Close()

	tr := tar.NewReader(gzr)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		if filepath.Base(header.Name) != "ecsgen" {
			continue
		}

		destPath := filepath.Join(destDir, "ecsgen-new")
		outFile, err := os.Create(destPath)
		if err != nil {
			return "", err
		}
		if _, err := io.Copy(outFile, tr); err != nil {
			outFile.Close()
			return "", err
		}
		outFile.Close()
		os.Chmod(destPath, 0o755)
		return destPath, nil
	}
	return "", fmt.Errorf("binary %q not found in archive", "ecsgen")
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
