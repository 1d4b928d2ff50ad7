package sender

import (
	"tradebot/internal/core/domain"

	"github.com/bwmarrin/discordgo"
)

var buttonStyles = map[domain.ButtonStyle]discordgo.ButtonStyle{
	domain.ButtonPrimary:   discordgo.PrimaryButton,
	domain.ButtonSecondary: discordgo.SecondaryButton,
	domain.ButtonSuccess:   discordgo.SuccessButton,
	domain.ButtonDanger:    discordgo.DangerButton,
}

var postKinds = map[string]domain.PostKind{
	string(domain.KindTrade):      domain.KindTrade,
	string(domain.KindSuggestion): domain.KindSuggestion,
	string(domain.KindReview):     domain.KindReview,
	string(domain.KindTicket):     domain.KindTicket,
	string(domain.KindPanel):      domain.KindPanel,
}

// toEmbed renders a post as a single embed. The post kind travels in the footer
// so that aggregation can recognise the message later.
func toEmbed(post domain.Post) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       post.Title,
		Description: post.Description,
		Color:       post.Color,
	}

	if post.Kind != domain.KindNone {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: string(post.Kind)}
	}
	if post.Author != "" {
		embed.Author = &discordgo.MessageEmbedAuthor{Name: post.Author}
	}
	if post.ImageURL != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: post.ImageURL}
	}

	for _, f := range post.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}

	return embed
}

func toComponents(buttons []domain.Button) []discordgo.MessageComponent {
	if len(buttons) == 0 {
		return []discordgo.MessageComponent{}
	}

	row := discordgo.ActionsRow{}
	for _, b := range buttons {
		style, ok := buttonStyles[b.Style]
		if !ok {
			style = discordgo.PrimaryButton
		}
		row.Components = append(row.Components, discordgo.Button{
			Label:    b.Label,
			Style:    style,
			CustomID: b.ID.String(),
		})
	}

	return []discordgo.MessageComponent{row}
}

func toModal(form domain.Form) *discordgo.InteractionResponseData {
	rows := make([]discordgo.MessageComponent, 0, len(form.Inputs))
	for _, in := range form.Inputs {
		style := discordgo.TextInputShort
		if in.Long {
			style = discordgo.TextInputParagraph
		}
		rows = append(rows, discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.TextInput{
					CustomID:    in.ID,
					Label:       in.Label,
					Style:       style,
					Placeholder: in.Placeholder,
					Required:    in.Required,
					MaxLength:   in.MaxLength,
				},
			},
		})
	}

	return &discordgo.InteractionResponseData{
		CustomID:   string(form.ID),
		Title:      form.Title,
		Components: rows,
	}
}

// toRendered flattens a platform message. Reaction counts exclude the bot's own reaction.
func (d *Discord) toRendered(m *discordgo.Message) domain.RenderedMessage {
	r := domain.RenderedMessage{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		Text:      m.Content,
		CreatedAt: m.Timestamp,
		Fields:    map[string]string{},
		Reactions: map[string]int{},
	}

	if m.Author != nil {
		r.AuthorID = m.Author.ID
		bot := d.botUser()
		r.AuthorIsBot = bot != "" && m.Author.ID == bot
	}

	for _, re := range m.Reactions {
		if re == nil || re.Emoji == nil {
			continue
		}
		count := re.Count
		if re.Me {
			count--
		}
		r.Reactions[re.Emoji.Name] = max(count, 0)
	}

	if len(m.Embeds) == 0 {
		return r
	}

	embed := m.Embeds[0]
	if embed.Footer != nil {
		r.Kind = postKinds[embed.Footer.Text]
	}
	if embed.Author != nil {
		r.Author = embed.Author.Name
	}
	r.Title = embed.Title
	r.Text = embed.Description
	for _, f := range embed.Fields {
		if f != nil {
			r.Fields[f.Name] = f.Value
		}
	}

	return r
}

func chunkText(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(runes) > 0 {
		n := min(limit, len(runes))
		chunks = append(chunks, string(runes[:n]))
		runes = runes[n:]
	}

	return chunks
}
