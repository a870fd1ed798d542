package generator

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"content_publisher/internal/content"
	"content_publisher/internal/domain"
)

var layouts = []*template.Template{
	template.Must(template.New("guide").Parse(`<h1>Complete Guide to {{.Title}}</h1>
<p>Welcome to this guide about {{.Keyword}}. Understanding {{.Keyword}} pays off for anyone who wants steady results instead of guesswork.</p>
<h2>What Is {{.Title}}?</h2>
<p>{{.Title}} covers a set of practical techniques. From the basics to advanced setups, {{.Keyword}} offers plenty of room to improve.</p>
<h2>Key Benefits</h2>
<ul>
<li>Better visibility across the platforms you already use</li>
<li>More engagement from the people you want to reach</li>
<li>Growth that holds up over the long term</li>
</ul>
<h2>Getting Started</h2>
<p>Start small, measure what changes and keep what works. For a deeper walkthrough see <a href="{{.TargetURL}}">{{.Anchor}}</a>.</p>
`)),
	template.Must(template.New("tips").Parse(`<h1>{{.Title}}: Practical Tips That Work</h1>
<p>Most advice about {{.Keyword}} is either too vague or too complicated. These tips sit in the middle.</p>
<h2>Plan Before You Start</h2>
<p>Write down what success with {{.Keyword}} looks like for you and check it every week.</p>
<h2>Keep It Consistent</h2>
<p>Small steady steps beat occasional bursts of effort. A simple routine is easier to keep.</p>
<h2>Learn From Others</h2>
<p>Collected experience saves time. <a href="{{.TargetURL}}">{{.Anchor}}</a> is a good place to compare approaches.</p>
<ol>
<li>Pick one goal</li>
<li>Track one number</li>
<li>Review every month</li>
</ol>
`)),
	template.Must(template.New("mistakes").Parse(`<h1>Common {{.Title}} Mistakes and How to Avoid Them</h1>
<p>Plenty of people start with {{.Keyword}} and give up early. The reasons are usually the same.</p>
<h2>Skipping the Basics</h2>
<p>Jumping ahead feels faster but leaves gaps that show up later.</p>
<h2>Measuring the Wrong Things</h2>
<p>Pick results you can act on. Vanity numbers rarely help with {{.Keyword}}.</p>
<h2>Going It Alone</h2>
<p>You do not have to work everything out yourself. Resources like <a href="{{.TargetURL}}">{{.Anchor}}</a> cover the details step by step.</p>
`)),
}

type layoutData struct {
	Title     string
	Keyword   string
	TargetURL string
	Anchor    string
}

// Template generates artifacts from built-in layouts, rotating through them
// on each call. It needs no external service.
type Template struct {
	next atomic.Uint64
	now  func() time.Time
}

func NewTemplate() *Template {
	return &Template{now: time.Now}
}

func (t *Template) Generate(ctx context.Context, campaign domain.Campaign) (*domain.ContentArtifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	keyword := strings.TrimSpace(campaign.Keyword)
	if keyword == "" {
		return nil, fmt.Errorf("generate content for campaign %s: keyword is required", campaign.ID)
	}
	anchor := strings.TrimSpace(campaign.AnchorText)
	if anchor == "" {
		anchor = keyword
	}

	layout := layouts[(t.next.Add(1)-1)%uint64(len(layouts))]

	var buf bytes.Buffer
	err := layout.Execute(&buf, layoutData{
		Title:     content.TitleCase(keyword),
		Keyword:   keyword,
		TargetURL: campaign.TargetURL,
		Anchor:    anchor,
	})
	if err != nil {
		return nil, fmt.Errorf("render %s layout: %w", layout.Name(), err)
	}

	body := buf.String()
	return &domain.ContentArtifact{
		ID:         uuid.NewString(),
		CampaignID: campaign.ID,
		Title:      content.ExtractTitle(body),
		Body:       body,
		TargetURL:  campaign.TargetURL,
		AnchorText: anchor,
		Status:     domain.ContentDraft,
		UpdatedAt:  t.now(),
	}, nil
}
