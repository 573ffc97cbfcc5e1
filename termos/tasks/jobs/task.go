// Package jobs is a small job-application tracker persisted in the store.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"

	"webterm/termos/services/shell"
	"webterm/termos/services/store"
)

// Namespace is the store namespace of job records.
const Namespace = "jobs"

const usageText = "jobs [list [status] | add <company> <role...> | set <id> <status> | rm <id>]"

// Statuses a job may be in.
var Statuses = []string{"applied", "screening", "interview", "offer", "rejected", "withdrawn"}

type Job struct {
	ID      string    `json:"id"`
	Company string    `json:"company"`
	Role    string    `json:"role"`
	Status  string    `json:"status"`
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
}

func Command() shell.Command {
	return shell.Command{
		Name:    "jobs",
		Aliases: []string{"job"},
		Usage:   usageText,
		Desc:    "Track job applications.",
		New:     func(env shell.Env) shell.App { return &task{env: env, bucket: env.OS.Store(Namespace)} },
	}
}

type task struct {
	env    shell.Env
	bucket store.Bucket
}

func (t *task) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return t.list(ctx, "")
	}
	switch sub, rest := strings.ToLower(args[0]), args[1:]; sub {
	case "list", "ls":
		if len(rest) > 1 {
			break
		}
		status := ""
		if len(rest) == 1 {
			var err error
			if status, err = parseStatus(rest[0]); err != nil {
				return err
			}
		}
		return t.list(ctx, status)
	case "add":
		if len(rest) < 2 {
			break
		}
		return t.add(ctx, rest[0], strings.Join(rest[1:], " "))
	case "set":
		if len(rest) != 2 {
			break
		}
		return t.set(ctx, rest[0], rest[1])
	case "rm", "del":
		if len(rest) != 1 {
			break
		}
		return t.remove(ctx, rest[0])
	}
	return fmt.Errorf("%w: %s", shell.ErrUsage, usageText)
}

func parseStatus(s string) (string, error) {
	s = strings.ToLower(s)
	for _, st := range Statuses {
		if st == s {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown status %q (one of: %s)", s, strings.Join(Statuses, ", "))
}

func (t *task) put(ctx context.Context, j Job) error {
	b, err := json.Marshal(j)
	if err != nil {
		return err
	}
	return t.bucket.Put(ctx, j.ID, b)
}

func (t *task) get(ctx context.Context, id string) (Job, error) {
	var j Job
	b, err := t.bucket.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return j, fmt.Errorf("no job with id %q", id)
	} else if err != nil {
		return j, err
	}
	if err := json.Unmarshal(b, &j); err != nil {
		return j, errors.WithMessagef(err, "decoding job %s", id)
	}
	return j, nil
}

func (t *task) all(ctx context.Context) ([]Job, error) {
	keys, err := t.bucket.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Job, 0, len(keys))
	for _, k := range keys {
		j, err := t.get(ctx, k)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	sort.SliceStable(out, func(i, k int) bool { return out[i].Created.Before(out[k].Created) })
	return out, nil
}

func (t *task) add(ctx context.Context, company, role string) error {
	now := t.env.OS.Now()
	j := Job{
		ID:      uuid.NewString()[:8],
		Company: company,
		Role:    role,
		Status:  Statuses[0],
		Created: now,
		Updated: now,
	}
	if err := t.put(ctx, j); err != nil {
		return err
	}
	t.env.Out.Write(fmt.Sprintf("added %s: %s at %s\n", j.ID, j.Role, j.Company))
	return nil
}

func (t *task) set(ctx context.Context, id, status string) error {
	status, err := parseStatus(status)
	if err != nil {
		return err
	}
	j, err := t.get(ctx, id)
	if err != nil {
		return err
	}
	j.Status = status
	j.Updated = t.env.OS.Now()
	if err := t.put(ctx, j); err != nil {
		return err
	}
	t.env.Out.Write(fmt.Sprintf("%s is now %s\n", j.ID, j.Status))
	return nil
}

func (t *task) remove(ctx context.Context, id string) error {
	err := t.bucket.Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("no job with id %q", id)
	} else if err != nil {
		return err
	}
	t.env.Out.Write("removed " + id + "\n")
	return nil
}

func (t *task) list(ctx context.Context, status string) error {
	jobs, err := t.all(ctx)
	if err != nil {
		return err
	}

	var rows [][]string
	for _, j := range jobs {
		if status != "" && j.Status != status {
			continue
		}
		rows = append(rows, []string{
			j.ID, j.Company, j.Role, j.Status, humanize.RelTime(j.Updated, t.env.OS.Now(), "ago", "from now"),
		})
	}
	if len(rows) == 0 {
		t.env.Out.Write("no jobs tracked; try `jobs add <company> <role>`\n")
		return nil
	}

	var b strings.Builder
	table := tablewriter.NewWriter(&b)
	table.Header("ID", "Company", "Role", "Status", "Updated")
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return errors.WithMessage(err, "formatting jobs")
		}
	}
	if err := table.Render(); err != nil {
		return errors.WithMessage(err, "formatting jobs")
	}
	t.env.Out.Write(b.String())
	return nil
}
