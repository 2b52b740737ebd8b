package models

import "time"

type Role struct {
	ID        string    `gorm:"type:text;primary_key" json:"id"`
	Name      string    `gorm:"type:text;not null" json:"name"`
	Icon      string    `gorm:"type:text" json:"icon"`
	Skills    []string  `gorm:"type:jsonb;serializer:json" json:"skills"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"-"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"-"`
}

func (Role) TableName() string {
	return "roles"
}

// DefaultRoles returns the built-in role catalog. Each call returns a fresh copy.
func DefaultRoles() []Role {
	return []Role{
		{
			ID:   "cybersecurity",
			Name: "Cybersecurity Analyst",
			Icon: "Shield",
			Skills: []string{
				"Network Security", "Penetration Testing", "SIEM", "Firewall Management",
				"Incident Response", "Vulnerability Assessment", "Security Auditing",
				"Cryptography", "Python", "Linux", "Risk Assessment", "Compliance",
				"Threat Intelligence", "Malware Analysis", "Security Frameworks",
			},
		},
		{
			ID:   "webdev",
			Name: "Web Developer",
			Icon: "Code",
			Skills: []string{
				"JavaScript", "TypeScript", "React", "Node.js", "HTML", "CSS",
				"REST APIs", "Git", "Responsive Design", "Testing", "Next.js",
				"Tailwind CSS", "MongoDB", "PostgreSQL", "AWS", "Docker",
			},
		},
		{
			ID:   "data",
			Name: "Data Analyst",
			Icon: "BarChart3",
			Skills: []string{
				"Python", "SQL", "Excel", "Tableau", "Power BI", "Statistics",
				"Data Visualization", "Machine Learning", "R", "ETL",
				"Data Cleaning", "A/B Testing", "Pandas", "NumPy", "BigQuery",
			},
		},
		{
			ID:   "devops",
			Name: "DevOps Engineer",
			Icon: "Server",
			Skills: []string{
				"Docker", "Kubernetes", "AWS", "Azure", "CI/CD", "Jenkins",
				"Terraform", "Ansible", "Linux", "Git", "Python", "Bash",
				"Monitoring", "Prometheus", "Grafana", "Networking",
			},
		},
		{
			ID:   "mobile",
			Name: "Mobile Developer",
			Icon: "Smartphone",
			Skills: []string{
				"React Native", "Flutter", "Swift", "Kotlin", "iOS", "Android",
				"Mobile UI/UX", "REST APIs", "Firebase", "App Store Deployment",
				"Push Notifications", "Offline Storage", "Testing",
			},
		},
		{
			ID:   "cloud",
			Name: "Cloud Engineer",
			Icon: "Cloud",
			Skills: []string{
				"AWS", "Azure", "GCP", "Kubernetes", "Docker", "Terraform",
				"CloudFormation", "Serverless", "Lambda", "S3", "EC2",
				"Networking", "Security", "Cost Optimization", "Python",
			},
		},
	}
}

// SkillsForRole looks up the required skills of a built-in role.
// Unknown roles yield nil.
func SkillsForRole(roleID string) []string {
	for _, r := range DefaultRoles() {
		if r.ID == roleID {
			return r.Skills
		}
	}
	return nil
}
