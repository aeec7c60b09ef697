// example.go — Starter design for instapost init.
package design

// ExampleJSON returns a sample design.json.
func ExampleJSON() string {
	return `{
  "meta": {
    "name": "Breaking news",
    "author": "newsroom",
    "description": "Portrait post with a lower-third caption"
  },
  "canvas": { "preset": "instagram_portrait", "background": "#000000" },
  "image": {
    "source": "photo.jpg",
    "zoom": 100,
    "x": 50,
    "y": 50,
    "fill": "fill"
  },
  "text": {
    "content": "City council approves new waterfront park",
    "fontSize": 60,
    "vertical": 80,
    "align": "center",
    "color": "#ffffff"
  },
  "mockup": ""
}`
}
