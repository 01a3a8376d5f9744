package notify

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

// SlackPoster posts messages as Slack attachments so the status color shows.
type SlackPoster struct {
	client *slack.Client
}

// NewSlackPoster creates a poster authenticated with a bot token.
func NewSlackPoster(token string, opts ...slack.Option) *SlackPoster {
	return &SlackPoster{client: slack.New(token, opts...)}
}

// PostMessage implements Poster.
func (s *SlackPoster) PostMessage(ctx context.Context, channel string, msg Message) error {
	_, _, err := s.client.PostMessageContext(ctx, channel,
		slack.MsgOptionText(msg.Text(), false),
		slack.MsgOptionAttachments(toAttachment(msg)),
	)
	if err != nil {
		return fmt.Errorf("failed to post to slack: %w", err)
	}
	return nil
}

func toAttachment(msg Message) slack.Attachment {
	blocks := make([]slack.Block, 0, len(msg.Blocks))
	for _, b := range msg.Blocks {
		text := slack.NewTextBlockObject(slack.MarkdownType, b.Text, false, false)
		switch b.Kind {
		case Context:
			blocks = append(blocks, slack.NewContextBlock("", text))
		default:
			blocks = append(blocks, slack.NewSectionBlock(text, nil, nil))
		}
	}
	return slack.Attachment{
		Color:  msg.Color,
		Blocks: slack.Blocks{BlockSet: blocks},
	}
}
