package session

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
)

// TurnEvent is the graph input for one inbound agent utterance.
type TurnEvent struct {
	Session    *Session
	Text       string
	Confidence float64
}

type turnRunner = compose.Runnable[TurnEvent, TurnResult]

// compileTurnGraph builds the per-turn pipeline. Nodes short-circuit
// through the decided flag on the turn state, so every turn flows through
// the same linear graph whether it ends in speech, silence, or hang-up.
func compileTurnGraph(ctx context.Context) (turnRunner, error) {
	graph := compose.NewGraph[TurnEvent, TurnResult]()

	type node struct {
		name string
		add  func() error
	}

	nodes := []node{
		{"validate_turn", func() error {
			return graph.AddLambdaNode("validate_turn",
				compose.InvokableLambda(func(ctx context.Context, ev TurnEvent) (*turnState, error) {
					return validateTurn(ev)
				}),
			)
		}},
		{"append_agent_turn", func() error {
			return graph.AddLambdaNode("append_agent_turn",
				compose.InvokableLambda(func(ctx context.Context, st *turnState) (*turnState, error) {
					return appendAgentTurn(ctx, st)
				}),
			)
		}},
		{"detect_closing", func() error {
			return graph.AddLambdaNode("detect_closing",
				compose.InvokableLambda(func(ctx context.Context, st *turnState) (*turnState, error) {
					return detectClosing(st)
				}),
			)
		}},
		{"evaluate_end", func() error {
			return graph.AddLambdaNode("evaluate_end",
				compose.InvokableLambda(func(ctx context.Context, st *turnState) (*turnState, error) {
					return evaluateEnd(st)
				}),
			)
		}},
		{"generate_reply", func() error {
			return graph.AddLambdaNode("generate_reply",
				compose.InvokableLambda(func(ctx context.Context, st *turnState) (*turnState, error) {
					return generateReply(ctx, st)
				}),
			)
		}},
		{"finalize_turn", func() error {
			return graph.AddLambdaNode("finalize_turn",
				compose.InvokableLambda(func(ctx context.Context, st *turnState) (TurnResult, error) {
					return finalizeTurn(ctx, st)
				}),
			)
		}},
	}

	for _, n := range nodes {
		if err := n.add(); err != nil {
			return nil, fmt.Errorf("add node %s: %w", n.name, err)
		}
	}

	edges := [][2]string{
		{compose.START, "validate_turn"},
		{"validate_turn", "append_agent_turn"},
		{"append_agent_turn", "detect_closing"},
		{"detect_closing", "evaluate_end"},
		{"evaluate_end", "generate_reply"},
		{"generate_reply", "finalize_turn"},
		{"finalize_turn", compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("session.handle_agent_turn"))
	if err != nil {
		return nil, fmt.Errorf("compile turn graph: %w", err)
	}
	return runner, nil
}
