// Package scheduler wraps the SLURM submission command.
package scheduler

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
)

// jobIDRe matches the job identifier in sbatch's success output.
var jobIDRe = regexp.MustCompile(`Submitted batch job (\d+)`)

// Slurm submits batch scripts through sbatch.
type Slurm struct {
	sbatchBin string
}

// NewSlurm creates a submitter using sbatch from PATH.
func NewSlurm() (*Slurm, error) {
	return newSlurmWithBinary("")
}

// NewSlurmWithBinary creates a submitter using an explicit sbatch path.
func NewSlurmWithBinary(sbatchBin string) (*Slurm, error) {
	return newSlurmWithBinary(sbatchBin)
}

func newSlurmWithBinary(sbatchBin string) (*Slurm, error) {
	binPath := sbatchBin
	if binPath == "" {
		var err error
		binPath, err = exec.LookPath("sbatch")
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSchedulerNotFound, err)
		}
	} else {
		if absPath, err := filepath.Abs(binPath); err == nil {
			binPath = absPath
		}
		info, err := os.Stat(binPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSchedulerNotFound, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%w: %s is a directory", ErrSchedulerNotFound, binPath)
		}
	}
	return &Slurm{sbatchBin: binPath}, nil
}

// Binary returns the resolved sbatch path.
func (s *Slurm) Binary() string { return s.sbatchBin }

// IsAvailable checks that sbatch exists and we're not inside a SLURM job
// (nested submissions are refused).
func (s *Slurm) IsAvailable() bool {
	if s.sbatchBin == "" {
		return false
	}
	_, inJob := os.LookupEnv("SLURM_JOB_ID")
	return !inJob
}

// Version returns the SLURM version reported by sbatch, if available.
func (s *Slurm) Version() (string, error) {
	output, err := exec.Command(s.sbatchBin, "--version").Output()
	if err != nil {
		return "", err
	}
	// Output looks like "slurm 23.02.6"
	parts := strings.Fields(strings.TrimSpace(string(output)))
	if len(parts) >= 2 {
		return parts[1], nil
	}
	return strings.TrimSpace(string(output)), nil
}

// Submit runs sbatch on the script and returns the assigned job ID along
// with sbatch's raw output line.
func (s *Slurm) Submit(scriptPath string) (string, string, error) {
	cmd := exec.Command(s.sbatchBin, scriptPath)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", "", &SubmissionError{
			Script: filepath.Base(scriptPath),
			Output: string(output),
			Err:    err,
		}
	}

	out := strings.TrimSpace(string(output))
	jobID, err := ParseJobID(out)
	if err != nil {
		return "", out, err
	}
	return jobID, out, nil
}

// ParseJobID extracts the job identifier from sbatch output.
func ParseJobID(output string) (string, error) {
	matches := jobIDRe.FindStringSubmatch(output)
	if len(matches) < 2 {
		return "", fmt.Errorf("%w: %s", ErrJobIDParseFailed, output)
	}
	return matches[1], nil
}
