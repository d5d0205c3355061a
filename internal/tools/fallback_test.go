package tools

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFallbackReportsIntent(t *testing.T) {
	ft := &FallbackTool{}

	res := ft.Run(context.Background(), Request{Goal: "the goal", Task: "the task"}, false, time.Second)
	assert.True(t, res.OK)
	assert.Contains(t, res.Stdout, "Planned only")
	assert.Contains(t, res.Stdout, "the task")

	res = ft.Run(context.Background(), Request{Goal: "only goal"}, false, time.Second)
	assert.Contains(t, res.Stdout, "only goal")
}
