package task

import (
	"context"
	"time"

	"task-manager/internal/model"
)

type sample struct {
	title       string
	description string
	completed   bool
	age         time.Duration
}

var samples = []sample{
	{
		title:       "Task 1: Kubernetes Cluster Setup",
		description: "Set up a Kubernetes cluster using minikube or Docker Desktop for local development.",
		completed:   true,
		age:         5 * 24 * time.Hour,
	},
	{
		title:       "Task 2: MongoDB Integration",
		description: "Configure MongoDB deployment in Kubernetes with persistent storage and proper authentication.",
		completed:   true,
		age:         3 * 24 * time.Hour,
	},
	{
		title:       "Task 3: Application Deployment",
		description: "Deploy the Node.js application to Kubernetes and ensure it connects to MongoDB properly.",
		completed:   false,
		age:         24 * time.Hour,
	},
	{
		title:       "Task 4: Implement Backup Strategy",
		description: "Create a backup and recovery plan for the MongoDB database in Kubernetes.",
		completed:   false,
	},
}

// Seed inserts the sample tasks when the store is empty and reports how many
// were written.
func (s *Service) Seed(ctx context.Context) (int, error) {
	ctx, cancel := s.storeContext(ctx)
	defer cancel()

	existing, err := s.repo.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	now := s.clock.Next()
	for i, smp := range samples {
		t := model.Task{
			ID:          s.newID(),
			Title:       smp.title,
			Description: smp.description,
			Completed:   smp.completed,
			CreatedAt:   now.Add(-smp.age),
		}
		if err := s.repo.Insert(ctx, t); err != nil {
			return i, err
		}
	}
	return len(samples), nil
}
