package annotate

import (
	"github.com/nao1215/peermark/internal/markup"
	"github.com/nao1215/peermark/internal/model"

	"golang.org/x/net/html"
)

const (
	markerStyle = "margin: 1rem 0;display: flex;width: calc(100% - 16px);background-color:#7ACCC8;padding: 5px 8px;font-size: 13px;border-radius:6px;"
	logoStyle   = "vertical-align:middle;padding-right:8px;height:25px;background-color:#7ACCC8;"
	innerStyle  = "align-items: center;display: flex;"
	linkStyle   = "color:rgb(255,255,255);text-decoration:none;font-weight:500;vertical-align:middle;"
)

// marker builds the marker element for fb pointing at link.
func (a *Annotator) marker(fb model.Feedback, link string) *html.Node {
	return markup.Element("div",
		[]markup.Attr{
			markup.A("class", markup.MarkerClass),
			markup.A("style", markerStyle),
		},
		markup.Element("img", []markup.Attr{
			markup.A("src", a.logoURL),
			markup.A("alt", a.serviceName),
			markup.A("style", logoStyle),
		}),
		markup.Element("div", []markup.Attr{markup.A("style", innerStyle)},
			markup.Element("a",
				[]markup.Attr{
					markup.A("href", link),
					markup.A("target", "_blank"),
					markup.A("rel", "noopener noreferrer"),
					markup.A("style", linkStyle),
				},
				markup.Text(a.Label(fb)),
			),
		),
	)
}

// Label returns the marker text for fb, for example
// "3 comments on PubPeer (by: A, B)".
func (a *Annotator) Label(fb model.Feedback) string {
	return fb.CommentLabel() + " on " + a.serviceName + " (by: " + fb.Users.String() + ")"
}
