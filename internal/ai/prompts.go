package ai

import (
	"fmt"
	"strings"

	"github.com/engmostafaayman001-hub/markode-ai/internal/domain"
)

const generateProjectSystemPrompt = "You are a senior full-stack developer who creates complete, production-ready applications. Always respond with valid JSON containing the file structure and code."

func generateProjectPrompt(req domain.GenerationRequest) string {
	framework := req.Framework
	if framework == "" {
		framework = "vanilla"
	}
	features := "basic functionality"
	if len(req.Features) > 0 {
		features = strings.Join(req.Features, ", ")
	}

	return fmt.Sprintf(`You are an expert web developer. Generate a complete, production-ready project based on this description:

Description: %s
Language: %s
Framework: %s
Features: %s

Requirements:
1. Generate complete file structure with all necessary files
2. Include modern, responsive design with Arabic language support (RTL)
3. Use best practices and clean, maintainable code
4. Include proper error handling and validation
5. Make it production-ready with security considerations

Respond with JSON in this format:
{
  "files": {
    "filename.ext": "file content",
    "folder/file.ext": "file content"
  },
  "description": "Brief description of what was created",
  "setup_instructions": "How to run/deploy this project"
}

Make sure all code is complete and functional. For React projects, use modern hooks and TypeScript. For styling, use Tailwind CSS with RTL support.`,
		req.Description, req.Language, framework, features)
}

func generateCodePrompt(prompt string) string {
	return fmt.Sprintf(`You are Markod AI, a professional code generator.
Generate clean, production-ready code.
Respond strictly in this JSON format:
{
  "success": true,
  "code": "...code here...",
  "explanation": "Explain how this code works."
}
User request: %s`, prompt)
}

func suggestImprovementsPrompt(code string) string {
	return fmt.Sprintf(`You are Markod AI, a senior code reviewer.
Suggest clear improvements to the given code.
Respond strictly in this JSON format:
{
  "success": true,
  "suggestions": ["...", "..."],
  "explanation": "Summarize why these changes matter."
}
Code:
%s`, code)
}

func fixCodePrompt(code, errorText string) string {
	return fmt.Sprintf(`You are Markod AI, a debugging expert.
Fix the error in the given code and explain the fix.
Respond strictly in this JSON format:
{
  "success": true,
  "code": "...corrected code...",
  "explanation": "Explain what was wrong and how it was fixed."
}
Code:
%s
Error:
%s`, code, errorText)
}
