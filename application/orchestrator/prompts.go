package orchestrator

import (
	"fmt"
	"strings"

	"ideamap/domain/core/valueobjects"
)

type treePromptLabels struct {
	analyze             string
	profile             string
	interests           string
	skills              string
	trends              string
	notProvided         string
	instruction         string
	outputFormat        string
	languageInstruction string
}

var treeLabels = map[valueobjects.Language]treePromptLabels{
	valueobjects.LanguageEnglish: {
		analyze:      "Analyze the following user profile to generate a business idea mindmap. Focus on identifying tangible problems and conceiving innovative business solutions.",
		profile:      "User Profile:",
		interests:    "Interests & Passions",
		skills:       "Skills & Expertise",
		trends:       "Observed Market Trends",
		notProvided:  "Not provided",
		instruction:  "Based on this profile, please generate a structured mindmap. Start with a central topic that synthesizes the user's inputs. Then, identify 3-4 distinct problems within that topic. For each problem, brainstorm 2-3 unique business ideas that act as solutions.",
		outputFormat: "The output must be a valid JSON object matching the provided schema.",
	},
	valueobjects.LanguageVietnamese: {
		analyze:             "Phân tích hồ sơ người dùng sau đây để tạo sơ đồ tư duy ý tưởng kinh doanh. Tập trung vào việc xác định các vấn đề hữu hình và hình thành các giải pháp kinh doanh sáng tạo.",
		profile:             "Hồ sơ người dùng:",
		interests:           "Sở thích & Đam mê",
		skills:              "Kỹ năng & Chuyên môn",
		trends:              "Xu hướng thị trường quan sát được",
		notProvided:         "Không cung cấp",
		instruction:         "Dựa trên hồ sơ này, vui lòng tạo một sơ đồ tư duy có cấu trúc. Bắt đầu với một chủ đề trung tâm tổng hợp các thông tin đầu vào của người dùng. Sau đó, xác định 3-4 vấn đề riêng biệt trong chủ đề đó. Đối với mỗi vấn đề, hãy động não 2-3 ý tưởng kinh doanh độc đáo đóng vai trò là giải pháp.",
		outputFormat:        "Đầu ra phải là một đối tượng JSON hợp lệ khớp với lược đồ được cung cấp.",
		languageInstruction: "Toàn bộ đầu ra, bao gồm tất cả các chủ đề, tiêu đề và mô tả, phải bằng tiếng Việt.",
	},
}

// TreeSchema describes the JSON shape expected from the tree call
const TreeSchema = `{"centralTopic": string, "problems": [{"problemTitle": string, "businessIdeas": [{"title": string, "description": string}]}]}`

// TaskSchema describes the JSON shape expected from a task call
const TaskSchema = `{"project_name": string, "estimated_total_duration": string, "development_phases": [{"phase": string, "duration": string, "tasks": [{"task": string, "duration": string}]}]}`

// BuildTreePrompt renders the stage-1 prompt for the user input
func BuildTreePrompt(input valueobjects.UserInput, lang valueobjects.Language) string {
	labels, ok := treeLabels[lang]
	if !ok {
		labels = treeLabels[valueobjects.LanguageEnglish]
	}
	orNotProvided := func(v string) string {
		if strings.TrimSpace(v) == "" {
			return labels.notProvided
		}
		return strings.TrimSpace(v)
	}

	var b strings.Builder
	b.WriteString(labels.analyze)
	b.WriteString("\n\n")
	b.WriteString(labels.profile)
	b.WriteString("\n")
	fmt.Fprintf(&b, "- %s: %s\n", labels.interests, orNotProvided(input.Interests))
	fmt.Fprintf(&b, "- %s: %s\n", labels.skills, orNotProvided(input.Skills))
	fmt.Fprintf(&b, "- %s: %s\n", labels.trends, orNotProvided(input.MarketTrends))
	b.WriteString("\n")
	b.WriteString(labels.instruction)
	b.WriteString("\n\n")
	b.WriteString(labels.outputFormat)
	b.WriteString("\n")
	b.WriteString(TreeSchema)
	if labels.languageInstruction != "" {
		b.WriteString("\n")
		b.WriteString(labels.languageInstruction)
	}
	return strings.TrimSpace(b.String())
}

// BuildTaskPrompt renders the stage-2 prompt for one idea
func BuildTaskPrompt(skills, ideaTitle, ideaDescription string, lang valueobjects.Language) string {
	skills = strings.TrimSpace(skills)
	if skills == "" {
		skills = "general"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a startup project planner. Create a development plan for the business idea %q", ideaTitle)
	if d := strings.TrimSpace(ideaDescription); d != "" {
		fmt.Fprintf(&b, " (%s)", d)
	}
	b.WriteString(".\n")
	fmt.Fprintf(&b, "The founder's skills: %s.\n", skills)
	b.WriteString("Split the work into 3-5 sequential development phases. Give every phase a duration and 2-5 concrete tasks, each with its own duration, and estimate the total duration of the project.\n")
	b.WriteString("The output must be a valid JSON object matching this schema:\n")
	b.WriteString(TaskSchema)
	b.WriteString("\n")
	fmt.Fprintf(&b, "Write every name, task and duration in %s.", lang.DisplayName())
	return b.String()
}
