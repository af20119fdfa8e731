package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/numaras/salesagent-sub000/internal/models"
	"github.com/numaras/salesagent-sub000/internal/services/creative_agent"
)

var errGenerativeKeyMissing = errors.New("generative formats require GEMINI_API_KEY to be configured")

// renderData builds the stored data blob of a creative. Static formats are
// previewed and generative formats are built by the creative agent; fields
// the buyer supplied always win over agent output. Formats of non-HTTP
// agents are stored as submitted.
func (p *CreativeProcessor) renderData(ctx context.Context, asset *models.CreativeAsset, fid models.FormatID,
	format *models.Format) (map[string]interface{}, error) {
	data := buildCreativeData(asset)
	if format == nil {
		return data, nil
	}

	var err error
	if format.IsGenerative() {
		err = p.build(ctx, asset, fid, data)
	} else {
		err = p.preview(ctx, asset, fid, data)
	}
	if err != nil {
		return nil, err
	}
	return toJSONMap(data), nil
}

func (p *CreativeProcessor) build(ctx context.Context, asset *models.CreativeAsset, fid models.FormatID, data map[string]interface{}) error {
	if p.geminiAPIKey == "" {
		return errGenerativeKeyMissing
	}

	result, err := p.agent.BuildCreative(ctx, fid.AgentURL, &creative_agent.BuildRequest{
		Message:           buildMessage(asset),
		TargetFormatID:    fid,
		PromotedOfferings: asset.PromotedOfferings,
		ContextID:         asset.ContextID,
	})
	if err != nil {
		return fmt.Errorf("build_creative failed: %w", err)
	}

	data[dataKeyGenerativeBuild] = toJSONMap(result)

	var filled []string
	output := result.CreativeOutput
	if u, ok := output["url"].(string); ok && u != "" && data["url"] == nil {
		data["url"] = u
		filled = append(filled, "url")
	}
	if assets, ok := output["assets"].(map[string]interface{}); ok && len(assets) > 0 && data["assets"] == nil {
		data["assets"] = assets
		filled = append(filled, "assets")
	}
	if len(output) == 0 && data["url"] == nil {
		return errNoRenderableOutput
	}
	recordFilled(data, filled)
	return nil
}

func (p *CreativeProcessor) preview(ctx context.Context, asset *models.CreativeAsset, fid models.FormatID, data map[string]interface{}) error {
	manifest := map[string]interface{}{
		"creative_id": asset.CreativeID,
		"name":        asset.Name,
		"format_id":   fid,
	}
	if len(asset.Assets) > 0 {
		manifest["assets"] = asset.Assets
	}
	if asset.URL != "" {
		manifest["url"] = asset.URL
	}

	result, err := p.agent.PreviewCreative(ctx, fid.AgentURL, &creative_agent.PreviewRequest{
		FormatID:         fid,
		CreativeManifest: manifest,
	})
	if err != nil {
		return fmt.Errorf("preview_creative failed: %w", err)
	}

	if len(result.Previews) == 0 || len(result.Previews[0].Renders) == 0 {
		if data["url"] == nil {
			return errNoRenderableOutput
		}
		return nil
	}
	data[dataKeyPreview] = toJSONMap(result)

	render := result.Previews[0].Renders[0]
	var filled []string
	if render.PreviewURL != "" && data["url"] == nil {
		data["url"] = render.PreviewURL
		filled = append(filled, "url")
	}
	if render.Dimensions != nil {
		if render.Dimensions.Width > 0 && data["width"] == nil {
			data["width"] = int(render.Dimensions.Width)
			filled = append(filled, "width")
		}
		if render.Dimensions.Height > 0 && data["height"] == nil {
			data["height"] = int(render.Dimensions.Height)
			filled = append(filled, "height")
		}
	}
	recordFilled(data, filled)
	return nil
}

func recordFilled(data map[string]interface{}, filled []string) {
	if len(filled) > 0 {
		data[dataKeyFilledFromAgent] = filled
	}
}

// buildMessage picks the brief for a generative build: the message, brief
// or prompt asset, then input context descriptions, then the creative name
func buildMessage(asset *models.CreativeAsset) string {
	for _, role := range []string{"message", "brief", "prompt"} {
		a, ok := asset.Assets[role]
		if !ok {
			continue
		}
		for _, field := range []string{"content", "text"} {
			if s, ok := a[field].(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
	}
	for _, in := range asset.Inputs {
		if strings.TrimSpace(in.ContextDescription) != "" {
			return in.ContextDescription
		}
	}
	return "Create a creative for: " + asset.Name
}
