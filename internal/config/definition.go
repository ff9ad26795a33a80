// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

// Definition represents the root of a job file.
type Definition struct {
	// Name is the label of the top level batch.
	Name        string `yaml:"name" docdesc:"Label of the job, shown at the root of the results"`
	Description string `yaml:"description,omitempty" docdesc:"Free text describing the job"`
	// Parallel runs the commands at the same time instead of one after the other.
	Parallel    bool `yaml:"parallel,omitempty" docdesc:"Run the commands at the same time instead of one after the other"`
	MaxParallel int  `yaml:"max_parallel,omitempty" docdesc:"Number of commands of a parallel job running at once, 0 means no limit"` //nolint:lll
	// Cwd is the directory the commands run in. Relative directories of commands are resolved against it.
	Cwd      string               `yaml:"cwd,omitempty" docdesc:"Working directory of the job, relative command directories are resolved against it"` //nolint:lll
	Env      map[string]string    `yaml:"env,omitempty" docdesc:"Environment variables added to every command"`
	Commands []*CommandDefinition `yaml:"commands" docdesc:"Commands or groups of commands to run"`
}

// CommandDefinition is a command, or a group of commands when Commands is set.
// Exactly one of Exec, Shell and Commands must be given.
type CommandDefinition struct {
	Name string `yaml:"name,omitempty" docdesc:"Label of the command, used as the command attribute of its log lines"`
	// Exec is the executable to run, looked up in PATH when it has no separator.
	Exec  string   `yaml:"exec,omitempty" docdesc:"Executable to run, looked up in PATH when it has no path separator"`
	Args  []string `yaml:"args,omitempty" docdesc:"Arguments passed to exec"`
	Shell string   `yaml:"shell,omitempty" docdesc:"Command line run with sh -c, instead of exec"`

	Cwd string            `yaml:"cwd,omitempty" docdesc:"Working directory, relative to the directory of the enclosing group"`
	Env map[string]string `yaml:"env,omitempty" docdesc:"Environment variables, these win over the ones of the enclosing group"`
	// RunsOn is relative to the previous command of a serial group.
	RunsOn string `yaml:"runs_on,omitempty" docdesc:"When to run relative to the previous command: success (default), error or always"` //nolint:lll

	// PTY runs the command on a pseudo-terminal. Its stdout and stderr arrive as one stream at StdoutLevel.
	PTY              bool   `yaml:"pty,omitempty" docdesc:"Run on a pseudo-terminal, stdout and stderr are then forwarded as one stream"` //nolint:lll
	StdoutLevel      string `yaml:"stdout_level,omitempty" docdesc:"Level of stdout lines: trace, debug, info (default), warn, error or critical"` //nolint:lll
	StderrLevel      string `yaml:"stderr_level,omitempty" docdesc:"Level of stderr lines, defaults to warn"`
	SuccessExitCodes []int  `yaml:"success_exit_codes,omitempty" docdesc:"Exit codes that indicate success, defaults to 0"`
	// Rules change the level of lines they match. The first matching rule wins.
	Rules []RuleDefinition `yaml:"rules,omitempty" docdesc:"Rules changing the level of matching lines, the first match wins"`
	// Escalate keeps a stream at the level of the last matching rule instead of
	// returning to its base level on the next line.
	Escalate bool `yaml:"escalate,omitempty" docdesc:"Keep the level of the last matching rule for the following lines"`

	// Commands makes this a group.
	Commands    []*CommandDefinition `yaml:"commands,omitempty" docdesc:"Makes this a group running these commands"`
	Parallel    bool                 `yaml:"parallel,omitempty" docdesc:"Run the commands of the group at the same time"`
	MaxParallel int                  `yaml:"max_parallel,omitempty" docdesc:"Number of commands of a parallel group running at once"` //nolint:lll
}

// RuleDefinition sets Level on every line matching the regular expression Match.
type RuleDefinition struct {
	Match string `yaml:"match" docdesc:"Regular expression matched against each line"`
	Level string `yaml:"level" docdesc:"Level of the matching lines"`
}
