package dataapi

import (
	"context"

	"authdemo/internal/service"
)

const taskColumns = "id,title,completed,is_public,user_id,created_at"

// ListTasks implements service.TaskStore. Row-level security decides which
// private rows an authenticated caller sees.
func (c *Client) ListTasks(ctx context.Context, q service.TaskQuery) ([]service.Task, error) {
	query := c.From(c.table).Select(taskColumns)
	if q.PublicOnly {
		query.Eq("is_public", "true")
	}
	var out []service.Task
	if err := query.Order("created_at", false).Do(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// InsertTask implements service.TaskStore.
func (c *Client) InsertTask(ctx context.Context, t service.NewTask) (service.Task, error) {
	var out service.Task
	err := c.From(c.table).
		Insert(t).
		Select(taskColumns).
		Single().
		Do(ctx, &out)
	if err != nil {
		return service.Task{}, err
	}
	return out, nil
}

// UpdateTask implements service.TaskStore.
func (c *Client) UpdateTask(ctx context.Context, id string, p service.TaskPatch) error {
	if p.Empty() {
		return nil
	}
	return c.From(c.table).Update(p).Eq("id", id).Do(ctx, nil)
}

// DeleteTask implements service.TaskStore.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.From(c.table).Delete().Eq("id", id).Do(ctx, nil)
}

// DeleteTasks implements service.TaskStore.
func (c *Client) DeleteTasks(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return c.From(c.table).Delete().In("id", ids).Do(ctx, nil)
}

