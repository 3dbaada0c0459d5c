package ast

// DefaultTemplate 返回内置的单栏模板树，用于新建模板时的初始结构。
func DefaultTemplate() Template {
	return Template{
		Version: "1.0",
		Root: &Node{
			ID:        "root",
			Type:      "root",
			Tag:       "div",
			ClassName: "resume-container",
			Styles: map[string]string{
				"max_width":   "800px",
				"margin":      "0 auto",
				"padding":     "40px",
				"background":  "#ffffff",
				"box_shadow":  "0 4px 6px rgba(0, 0, 0, 0.1)",
				"font_family": "-apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif",
			},
			Editable:  true,
			Draggable: false,
			Children: []*Node{
				{
					ID:   "header",
					Type: "header",
					Tag:  "header",
					Styles: map[string]string{
						"text_align":     "center",
						"margin_bottom":  "32px",
						"padding_bottom": "24px",
						"border_bottom":  "2px solid #2563eb",
					},
					Editable:  true,
					Draggable: true,
					Children: []*Node{
						{
							ID:       "name",
							Type:     "text",
							Tag:      "h1",
							DataPath: "profile.name",
							Content:  "{{profile.name}}",
							Styles: map[string]string{
								"font_size":   "32px",
								"font_weight": "bold",
								"color":       "#2563eb",
								"margin":      "0 0 8px 0",
							},
							Editable:  true,
							Draggable: true,
						},
						{
							ID:   "contact",
							Type: "container",
							Tag:  "div",
							Styles: map[string]string{
								"display":         "flex",
								"justify_content": "center",
								"gap":             "16px",
								"color":           "#6b7280",
							},
							Editable:  true,
							Draggable: true,
							Children: []*Node{
								{ID: "email", Type: "text", Tag: "span", DataPath: "profile.email", Content: "{{profile.email}}", Editable: true, Draggable: true},
								{ID: "phone", Type: "text", Tag: "span", DataPath: "profile.phone", Content: "{{profile.phone}}", Editable: true, Draggable: true},
							},
						},
					},
				},
				{
					ID:   "summary",
					Type: "section",
					Tag:  "section",
					Styles: map[string]string{
						"margin_bottom": "24px",
					},
					Editable:  true,
					Draggable: true,
					Children: []*Node{
						{
							ID:      "summary-title",
							Type:    "text",
							Tag:     "h2",
							Content: "个人简介",
							Styles: map[string]string{
								"font_size":     "20px",
								"color":         "#1f2937",
								"border_left":   "4px solid #2563eb",
								"padding_left":  "12px",
								"margin_bottom": "12px",
							},
							Editable:  true,
							Draggable: true,
						},
						{
							ID:       "summary-body",
							Type:     "text",
							Tag:      "p",
							DataPath: "profile.summary",
							Content:  "{{profile.summary}}",
							Styles: map[string]string{
								"line_height": "1.6",
								"color":       "#374151",
							},
							Editable:  true,
							Draggable: true,
						},
					},
				},
				{
					ID:     "experience",
					Type:   "section",
					Tag:    "section",
					Repeat: "sections.experience",
					Styles: map[string]string{
						"margin_bottom": "24px",
					},
					Editable:  true,
					Draggable: true,
					Children: []*Node{
						{
							ID:       "experience-title",
							Type:     "text",
							Tag:      "h3",
							DataPath: "item.content.title",
							Content:  "{{item.content.title}} @ {{item.content.company}}",
							Styles: map[string]string{
								"font_size":   "16px",
								"font_weight": "bold",
								"color":       "#1f2937",
							},
							Editable:  true,
							Draggable: true,
						},
						{
							ID:       "experience-desc",
							Type:     "text",
							Tag:      "p",
							DataPath: "item.content.description",
							Content:  "{{item.content.description}}",
							Styles: map[string]string{
								"line_height": "1.6",
								"color":       "#4b5563",
							},
							Editable:  true,
							Draggable: true,
						},
					},
				},
			},
		},
		Variables: map[string]string{
			"profile.name":    "姓名",
			"profile.email":   "邮箱",
			"profile.phone":   "电话",
			"profile.summary": "个人简介",
		},
	}
}
